package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig
	Store   StoreConfig
	Badger  BadgerConfig
	Redis   RedisConfig
	Memory  MemoryConfig
	Filters FiltersConfig
	Breaker BreakerConfig
	Server  ServerConfig
	OTEL    OTELConfig
	Log     LogConfig
}

// APIConfig holds the analytics backend configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Store backends
const (
	StoreBackendBadger = "badger"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

// StoreConfig selects where filter snapshots and the session are kept
type StoreConfig struct {
	Backend string
}

// BadgerConfig holds the local file store configuration
type BadgerConfig struct {
	Dir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MemoryConfig holds the in-process store configuration
type MemoryConfig struct {
	MaxSizeMB int
}

// FiltersConfig holds filter persistence configuration
type FiltersConfig struct {
	RetentionDays int
	Timezone      string
}

// BreakerConfig holds circuit breaker configuration for analytics queries
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
}

// ServerConfig holds the local dashboard API configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendBadger)),
		},
		Badger: BadgerConfig{
			Dir: getEnv("BADGER_DIR", defaultBadgerDir()),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Memory: MemoryConfig{
			MaxSizeMB: getEnvAsInt("MEMORY_STORE_MAX_MB", 16),
		},
		Filters: FiltersConfig{
			RetentionDays: getEnvAsInt("FILTER_RETENTION_DAYS", 30),
			Timezone:      getEnv("FILTER_TIMEZONE", "Local"),
		},
		Breaker: BreakerConfig{
			Enabled:          getEnvAsBool("BREAKER_ENABLED", false),
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			OpenTimeout:      getEnvAsDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "127.0.0.1"),
			Port:           getEnvAsInt("SERVER_PORT", 5173),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "analytics-dashboard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("API_URL is required")
	}
	switch c.Store.Backend {
	case StoreBackendBadger, StoreBackendRedis, StoreBackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Filters.RetentionDays <= 0 {
		return fmt.Errorf("FILTER_RETENTION_DAYS must be positive")
	}
	if _, err := c.Filters.Location(); err != nil {
		return fmt.Errorf("invalid FILTER_TIMEZONE: %w", err)
	}
	return nil
}

// Retention returns how long a saved filter snapshot is kept
func (c *FiltersConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Location returns the timezone used to turn date-only filters into instants
func (c *FiltersConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the local API listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultBadgerDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/vigility-dashboard/store"
	}
	return ".dashboard-store"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
