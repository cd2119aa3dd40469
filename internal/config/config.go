package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// APIConfig holds upstream API credentials and limits.
type APIConfig struct {
	OpenChargeMapKey    string
	OpenWeatherKey      string
	DirectoryMaxResults int
}

// StoreConfig selects where the charger cache is persisted.
type StoreConfig struct {
	Backend       string
	RedisURL      string
	DatabaseURL   string
	MigrationsDir string
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	WeatherMaxAge      time.Duration
	DefaultMinDistance float64
	DefaultMaxDistance float64
}

// Config is the full application configuration.
type Config struct {
	Port               string
	LogLevel           slog.Level
	RateLimitPerMinute int
	API                APIConfig
	Store              StoreConfig
	Search             SearchConfig
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		API: APIConfig{
			OpenChargeMapKey:    os.Getenv("OPENCHARGEMAP_API_KEY"),
			OpenWeatherKey:      os.Getenv("OPENWEATHER_API_KEY"),
			DirectoryMaxResults: getEnvInt("DIRECTORY_MAX_RESULTS", 100),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", BackendRedis)),
			RedisURL:      getEnv("REDIS_URL", ""),
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Search: SearchConfig{
			WeatherMaxAge:      getEnvDuration("WEATHER_MAX_AGE", 2*time.Hour),
			DefaultMinDistance: getEnvFloat("DEFAULT_MIN_DISTANCE", 0),
			DefaultMaxDistance: getEnvFloat("DEFAULT_MAX_DISTANCE", 50),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.OpenChargeMapKey == "" {
		return fmt.Errorf("config: OPENCHARGEMAP_API_KEY is required")
	}
	if c.API.OpenWeatherKey == "" {
		return fmt.Errorf("config: OPENWEATHER_API_KEY is required")
	}

	switch c.Store.Backend {
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required for the %s store", BackendRedis)
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s store", BackendPostgres)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Search.DefaultMinDistance < 0 || c.Search.DefaultMaxDistance < c.Search.DefaultMinDistance {
		return fmt.Errorf("config: invalid default distance range [%g, %g]",
			c.Search.DefaultMinDistance, c.Search.DefaultMaxDistance)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go durations ("90m") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return lvl
}
