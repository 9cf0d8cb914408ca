package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
)

const (
	DefaultAPIURL     = "http://localhost:8080/api"
	DefaultWebURL     = "http://localhost:3000"
	DefaultAPITimeout = 10 * time.Second
)

// Config holds all configuration for the CLI
type Config struct {
	// Backend API configuration
	API APIConfig

	// Web UI configuration (used for browser hand-off)
	Web WebConfig

	// Token persistence configuration
	Token TokenConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds backend API configuration
type APIConfig struct {
	URL     string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// WebConfig holds the web UI location
type WebConfig struct {
	URL string `validate:"required,url"`
}

// TokenConfig selects where the auth token is persisted
type TokenConfig struct {
	Backend string `validate:"oneof=keyring file memory"`
	File    string // Only used by the file backend; empty = default path
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string `validate:"oneof=json console"` // json, console
}

// Load loads configuration from environment variables, falling back to the
// user config file and then to compiled defaults.
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// API URL - env wins, then ~/.config/coursehub/config.json, then localhost
	apiURL := os.Getenv("COURSEHUB_API_URL")
	if apiURL == "" {
		saved, err := userconfig.GetAPIURL()
		if err != nil {
			return nil, err
		}
		apiURL = saved
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	timeout := DefaultAPITimeout
	if raw := os.Getenv("COURSEHUB_API_TIMEOUT"); raw != "" {
		parsed, err := parseTimeout(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid COURSEHUB_API_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	webURL := os.Getenv("COURSEHUB_WEB_URL")
	if webURL == "" {
		webURL = DefaultWebURL
	}

	tokenBackend := os.Getenv("COURSEHUB_TOKEN_STORE")
	if tokenBackend == "" {
		tokenBackend = "keyring"
	}

	// Logging configuration - quiet by default so command output stays readable
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	cfg := &Config{
		API: APIConfig{
			URL:     strings.TrimRight(apiURL, "/"),
			Timeout: timeout,
		},
		Web: WebConfig{
			URL: strings.TrimRight(webURL, "/"),
		},
		Token: TokenConfig{
			Backend: strings.ToLower(tokenBackend),
			File:    os.Getenv("COURSEHUB_TOKEN_FILE"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: strings.ToLower(logFormat),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// parseTimeout accepts a Go duration ("10s") or a bare number of milliseconds ("10000")
func parseTimeout(raw string) (time.Duration, error) {
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}
