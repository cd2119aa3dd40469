package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dry-chargers/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENCHARGEMAP_API_KEY", "ocm-key")
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 100, cfg.API.DirectoryMaxResults)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "migrations", cfg.Store.MigrationsDir)
	assert.Equal(t, 2*time.Hour, cfg.Search.WeatherMaxAge)
	assert.Equal(t, 0.0, cfg.Search.DefaultMinDistance)
	assert.Equal(t, 50.0, cfg.Search.DefaultMaxDistance)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chargers")
	t.Setenv("WEATHER_MAX_AGE", "90m")
	t.Setenv("DIRECTORY_MAX_RESULTS", "250")
	t.Setenv("DEFAULT_MAX_DISTANCE", "120.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, config.BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Search.WeatherMaxAge)
	assert.Equal(t, 250, cfg.API.DirectoryMaxResults)
	assert.Equal(t, 120.5, cfg.Search.DefaultMaxDistance)
}

func TestLoad_DurationInSeconds(t *testing.T) {
	setRequired(t)
	t.Setenv("WEATHER_MAX_AGE", "600")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Search.WeatherMaxAge)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("WEATHER_MAX_AGE", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Search.WeatherMaxAge)
}

func TestLoad_MissingKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
}

func TestLoad_StoreBackendValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")

	t.Setenv("STORE_BACKEND", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)

	t.Setenv("STORE_BACKEND", "dynamo")
	_, err = config.Load()
	require.Error(t, err)
}

func TestLoad_InvalidDistanceRange(t *testing.T) {
	setRequired(t)
	t.Setenv("DEFAULT_MIN_DISTANCE", "60")

	_, err := config.Load()
	require.Error(t, err)
}
