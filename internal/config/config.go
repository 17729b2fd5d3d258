package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// defaultAPIBaseURL points at the production shopping-list service.
const defaultAPIBaseURL = "https://nt-shopping-list.onrender.com/api"

// Config holds all configuration for the application
type Config struct {
	TelegramToken string
	DatabaseURL   string
	APIBaseURL    string
	LogLevel      string
	OpsPort       string
}

// Load loads configuration from the environment, reading a .env file first
// when one is present. All missing required variables are reported together.
func Load() (*Config, error) {
	// Best effort: a missing .env file is fine in production.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		APIBaseURL:    getEnvOrDefault("API_BASE_URL", defaultAPIBaseURL),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		OpsPort:       getEnvOrDefault("OPS_PORT", "9090"),
	}

	var errs *multierror.Error
	if cfg.TelegramToken == "" {
		errs = multierror.Append(errs, fmt.Errorf("TELEGRAM_TOKEN environment variable is required"))
	}
	if cfg.DatabaseURL == "" {
		errs = multierror.Append(errs, fmt.Errorf("DATABASE_URL environment variable is required"))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
