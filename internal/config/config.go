package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Account store configuration
	Accounts AccountsConfig

	// Identity provider client configuration
	Identity IdentityConfig

	// Import job configuration
	Import ImportConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AccountsConfig holds credential store settings
type AccountsConfig struct {
	FilePath string
}

// IdentityConfig holds identity provider client settings
type IdentityConfig struct {
	RequestTimeout time.Duration
}

// ImportConfig holds bulk import job settings
type ImportConfig struct {
	// TickInterval is the period of the elapsed-time and countdown tickers.
	// One tick represents one second of job time; tests shrink it.
	TickInterval time.Duration

	// PausePollInterval bounds the latency to detect resume/stop while paused
	PausePollInterval time.Duration

	// MaxInputBytes caps the raw user-list text accepted per request
	MaxInputBytes int64
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, preloading a .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Accounts: AccountsConfig{
			FilePath: getEnv("ACCOUNTS_FILE", "./data/accounts.json"),
		},
		Identity: IdentityConfig{
			RequestTimeout: getDurationEnv("IDENTITY_REQUEST_TIMEOUT", 30*time.Second),
		},
		Import: ImportConfig{
			TickInterval:      getDurationEnv("IMPORT_TICK_INTERVAL", time.Second),
			PausePollInterval: getDurationEnv("IMPORT_PAUSE_POLL_INTERVAL", 200*time.Millisecond),
			MaxInputBytes:     getInt64Env("IMPORT_MAX_INPUT_BYTES", 5*1024*1024), // 5MB
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Accounts.FilePath == "" {
		return fmt.Errorf("ACCOUNTS_FILE is required")
	}
	if c.Import.TickInterval <= 0 {
		return fmt.Errorf("IMPORT_TICK_INTERVAL must be positive")
	}
	if c.Import.PausePollInterval <= 0 {
		return fmt.Errorf("IMPORT_PAUSE_POLL_INTERVAL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
