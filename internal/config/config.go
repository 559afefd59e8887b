package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/config"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/database"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/tracing"
)

// User lookup modes.
const (
	UserLookupPostgres = "postgres"
	UserLookupHTTP     = "http"
)

// Config holds all configuration for the notification service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"NOTIFICATION_HTTP_PORT" envDefault:"8010"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"marketplace"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"marketplace_secret"`
	PostgresDB       string `env:"NOTIFICATION_DB_NAME" envDefault:"marketplace"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"25"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	SlowQueryMs      int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisEnabled   bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	UnreadCacheTTL time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"30s"`

	// Kafka
	KafkaEnabled   bool          `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID   string        `env:"KAFKA_GROUP_ID" envDefault:"notification-service"`
	IdempotencyTTL time.Duration `env:"EVENT_IDEMPOTENCY_TTL" envDefault:"24h"`

	// User directory
	UserLookupMode string `env:"USER_LOOKUP_MODE" envDefault:"postgres"`
	UserServiceURL string `env:"USER_SERVICE_URL" envDefault:"http://localhost:8001"`

	// Notifications
	ListLimit         int           `env:"NOTIFICATION_LIST_LIMIT" envDefault:"50"`
	RetentionDays     int           `env:"NOTIFICATION_RETENTION_DAYS" envDefault:"0"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"1h"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP surface
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofEnabled       bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load notification config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid postgres port: %d", c.PostgresPort))
	}
	if c.ListLimit < 1 {
		errs = append(errs, fmt.Errorf("NOTIFICATION_LIST_LIMIT must be positive, got %d", c.ListLimit))
	}
	if c.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("NOTIFICATION_RETENTION_DAYS must not be negative, got %d", c.RetentionDays))
	}
	if c.RetentionDays > 0 && c.RetentionInterval <= 0 {
		errs = append(errs, errors.New("RETENTION_INTERVAL must be positive when retention is enabled"))
	}
	if c.RedisEnabled && c.UnreadCacheTTL <= 0 {
		errs = append(errs, errors.New("UNREAD_CACHE_TTL must be positive"))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when Kafka is enabled"))
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %g", c.OTelSampleRate))
	}

	switch c.UserLookupMode {
	case UserLookupPostgres:
	case UserLookupHTTP:
		if u, err := url.Parse(c.UserServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid USER_SERVICE_URL: %q", c.UserServiceURL))
		}
	default:
		errs = append(errs, fmt.Errorf("USER_LOOKUP_MODE must be %q or %q, got %q",
			UserLookupPostgres, UserLookupHTTP, c.UserLookupMode))
	}

	return errors.Join(errs...)
}

// Postgres returns the connection settings for the pool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

func (c *Config) Tracing(service string) tracing.Config {
	return tracing.Config{
		ServiceName:    service,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTelEndpoint,
		SampleRate:     c.OTelSampleRate,
		Enabled:        c.OTelEnabled,
	}
}

// SlowQueryThreshold is zero when slow-query logging is disabled.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// Retention is the age after which notifications are purged, or zero when
// they are kept forever.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
