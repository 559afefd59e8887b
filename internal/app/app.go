package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/cache"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/config"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/event"
	handler "github.com/devllyservices-png/zedyoumplus2-sub000/internal/handler/http"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/repository"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/repository/postgres"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/retention"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/store"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/trigger"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/userdir"
	"github.com/devllyservices-png/zedyoumplus2-sub000/migrations"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/database"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/health"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/httpclient"
	pkgkafka "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/kafka"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/middleware"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/tracing"
)

// ServiceName labels logs, traces and metrics.
const ServiceName = "notification-service"

// App wires together all dependencies and runs the notification service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	retention      *retention.Worker
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(a.pool, ServiceName)

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
			a.closeResources()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}

	// Redis is optional. Without it the unread count is always read from
	// PostgreSQL and event deduplication is process-local.
	storeOpts := []store.Option{store.WithListLimit(cfg.ListLimit)}
	var idem pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
	if cfg.RedisEnabled {
		a.redis, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
		storeOpts = append(storeOpts, store.WithUnreadCache(cache.NewUnreadCounter(a.redis, cfg.UnreadCacheTTL)))
		idem = pkgkafka.NewRedisIdempotencyStore(a.redis, cfg.IdempotencyTTL)
	}

	notificationStore := store.NewNotificationStore(
		postgres.NewNotificationRepository(a.pool),
		a.userDirectory(),
		logger,
		storeOpts...,
	)
	triggers := trigger.New(notificationStore, logger)

	if cfg.KafkaEnabled {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.consumers = event.NewConsumers(
			event.ConsumersConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.KafkaGroupID},
			event.NewConsumerHandler(triggers, logger),
			idem,
			a.dlq,
			logger,
		)
		logger.Info("kafka consumers initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Int("topics", len(a.consumers)),
		)
	}

	if maxAge := cfg.Retention(); maxAge > 0 {
		a.retention = retention.NewWorker(notificationStore, maxAge, cfg.RetentionInterval, logger)
	}

	healthHandler := a.healthChecks()

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(
		handler.NewNotificationHandler(notificationStore, triggers, logger),
		healthHandler,
		handler.RouterConfig{
			ServiceName:       ServiceName,
			RequestTimeout:    cfg.RequestTimeout,
			CORS:              cors,
			PprofEnabled:      cfg.PprofEnabled,
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		},
		logger,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) userDirectory() repository.UserDirectory {
	if a.cfg.UserLookupMode == config.UserLookupHTTP {
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("user-service"),
			a.logger,
		)
		a.logger.Info("user lookups go to the user service", slog.String("url", a.cfg.UserServiceURL))
		return userdir.NewHTTPDirectory(client, a.cfg.UserServiceURL)
	}
	return postgres.NewUserRepository(a.pool)
}

func (a *App) healthChecks() *health.Handler {
	h := health.NewHandler()
	h.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	if a.redis != nil {
		h.RegisterOptional("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.cfg.KafkaEnabled {
		brokers := a.cfg.KafkaBrokers
		h.RegisterOptional("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, brokers)
		})
	}
	return h
}

// Run starts the HTTP server, the Kafka consumers and the retention worker,
// then blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup

	for _, consumer := range a.consumers {
		c := consumer
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Start(bgCtx); err != nil {
				a.logger.Error("kafka consumer error",
					slog.String("topic", c.Topic()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	if a.retention != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.retention.Run(bgCtx)
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopBackground()
	shutdownErr := a.Shutdown()
	wg.Wait()
	a.closeResources()
	a.logger.Info("application shutdown complete")

	if runErr != nil {
		return runErr
	}
	return shutdownErr
}

// Shutdown stops accepting HTTP requests and drains in-flight ones, then
// closes the Kafka readers so consumers return.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error",
				slog.String("topic", consumer.Topic()),
				slog.String("error", err.Error()),
			)
		}
	}

	return errors.Join(errs...)
}

// closeResources releases everything opened by NewApp. It runs after the
// consumers and the retention worker have returned.
func (a *App) closeResources() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
