// Package config handles RISC tool configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbd888/risc/pkg/risc"
)

// Config holds the settings shared by the RISC command-line tools.
type Config struct {
	// API credentials
	Token  string
	Secret string

	// Endpoint
	Host      string
	Port      int // 0 picks the scheme default
	HTTPS     bool
	BasicAuth bool
	Timeout   time.Duration
	Verbose   bool

	// Observability
	LogLevel     string
	LogFormat    string // "text" or "json"
	OTLPEndpoint string
}

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultTimeoutMS = 5000
)

// Load reads configuration from environment variables and validates it.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it, so callers can
// apply overrides (e.g. command-line flags) first.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Token:        os.Getenv("RISC_API_TOKEN"),
		Secret:       os.Getenv("RISC_API_SECRET"),
		Host:         getEnv("RISC_HOST", risc.DefaultHost),
		Port:         int(getEnvInt64("RISC_PORT", 0)),
		HTTPS:        getEnvBool("RISC_HTTPS", true),
		BasicAuth:    getEnvBool("RISC_HTTP_BASIC_AUTH", false),
		Timeout:      time.Duration(getEnvInt64("RISC_TIMEOUT_MS", DefaultTimeoutMS)) * time.Millisecond,
		Verbose:      getEnvBool("RISC_VERBOSE", false),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getEnv("LOG_FORMAT", DefaultLogFormat),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("RISC_API_TOKEN is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("RISC_API_SECRET is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("RISC_PORT must be between 1 and 65535")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("RISC_TIMEOUT_MS must be positive")
	}
	return nil
}

// Options converts the configuration into client options.
func (c *Config) Options(out risc.Output, logger *slog.Logger) risc.Options {
	return risc.Options{
		Token:         c.Token,
		Secret:        c.Secret,
		Host:          c.Host,
		Port:          c.Port,
		PlainHTTP:     !c.HTTPS,
		HTTPBasicAuth: c.BasicAuth,
		Timeout:       c.Timeout,
		Verbose:       c.Verbose,
		Output:        out,
		Logger:        logger,
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
