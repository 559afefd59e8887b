package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	Brokers []string      `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	TTL     time.Duration `env:"TEST_CFG_TTL" envDefault:"30s"`
	Enabled bool          `env:"TEST_CFG_ENABLED" envDefault:"true"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.True(t, cfg.Enabled)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TEST_CFG_TTL", "1m")
	t.Setenv("TEST_CFG_ENABLED", "false")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, time.Minute, cfg.TTL)
	assert.False(t, cfg.Enabled)
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "eighty")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
	assert.Empty(t, MissingVars(err))
}

type requiredConfig struct {
	DBPassword string `env:"TEST_CFG_DB_PASSWORD,required"`
	APIKey     string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_ReportsAllMissingVars(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"TEST_CFG_DB_PASSWORD", "TEST_CFG_API_KEY"}, MissingVars(err))
}

func TestMissingVars_NonConfigError(t *testing.T) {
	assert.Nil(t, MissingVars(nil))
	assert.Nil(t, MissingVars(assert.AnError))
}
