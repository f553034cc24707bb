package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"causelens/internal/errors"
)

// Data source kinds
const (
	SourceBackend  = "backend"
	SourceDatabase = "database"
	SourceFile     = "file"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Backend  BackendConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string // postgres or sqlite
	URL    string
}

// ServerConfig holds settings for the JSON API and the chart UI
type ServerConfig struct {
	Port    string
	UIPort  string
	GinMode string
}

// DataConfig selects where rows come from and how much of them a plot may read
type DataConfig struct {
	Source       string
	Dir          string
	RowLimit     int
	CurveSamples int
}

// BackendConfig holds settings for the external analysis backend
type BackendConfig struct {
	URL        string
	AuthMethod string // bearer, api_key, basic or none
	Token      string
	Username   string
	Password   string
	DataPath   string
	Timeout    time.Duration
	RateLimit  int // requests per minute
}

// Enabled reports whether a backend URL is configured
func (b BackendConfig) Enabled() bool {
	return b.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Data:     loadDataConfig(),
		Backend:  loadBackendConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "postgres")),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		UIPort:  getEnvOrDefault("UI_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadDataConfig() DataConfig {
	return DataConfig{
		Source:       strings.ToLower(getEnvOrDefault("DATA_SOURCE", SourceDatabase)),
		Dir:          getEnvOrDefault("DATA_DIR", "./data"),
		RowLimit:     getEnvIntOrDefault("ROW_LIMIT", 10000),
		CurveSamples: getEnvIntOrDefault("CURVE_SAMPLES", 50),
	}
}

func loadBackendConfig() BackendConfig {
	return BackendConfig{
		URL:        strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		AuthMethod: strings.ToLower(getEnvOrDefault("BACKEND_AUTH_METHOD", "none")),
		Token:      os.Getenv("BACKEND_TOKEN"),
		Username:   os.Getenv("BACKEND_USERNAME"),
		Password:   os.Getenv("BACKEND_PASSWORD"),
		DataPath:   getEnvOrDefault("BACKEND_DATA_PATH", "data"),
		Timeout:    getEnvDurationOrDefault("BACKEND_TIMEOUT", 30*time.Second),
		RateLimit:  getEnvIntOrDefault("BACKEND_RATE_LIMIT", 60),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DATABASE_DRIVER must be postgres or sqlite, got %q", config.Database.Driver))
	}

	switch config.Data.Source {
	case SourceDatabase:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE is database")
		}
	case SourceBackend:
		if !config.Backend.Enabled() {
			return errors.ConfigInvalid("BACKEND_URL is required when DATA_SOURCE is backend")
		}
	case SourceFile:
		if config.Data.Dir == "" {
			return errors.ConfigInvalid("DATA_DIR is required when DATA_SOURCE is file")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DATA_SOURCE must be backend, database or file, got %q", config.Data.Source))
	}

	if config.Data.RowLimit <= 0 {
		return errors.ConfigInvalid("ROW_LIMIT must be positive")
	}
	if config.Data.CurveSamples < 2 {
		return errors.ConfigInvalid("CURVE_SAMPLES must be at least 2")
	}

	if config.Backend.Enabled() {
		switch config.Backend.AuthMethod {
		case "none":
		case "bearer", "api_key":
			if config.Backend.Token == "" {
				return errors.ConfigInvalid("BACKEND_TOKEN is required for " + config.Backend.AuthMethod + " auth")
			}
		case "basic":
			if config.Backend.Username == "" {
				return errors.ConfigInvalid("BACKEND_USERNAME is required for basic auth")
			}
		default:
			return errors.ConfigInvalid(fmt.Sprintf("unknown BACKEND_AUTH_METHOD %q", config.Backend.AuthMethod))
		}
		if config.Backend.RateLimit <= 0 {
			return errors.ConfigInvalid("BACKEND_RATE_LIMIT must be positive")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
