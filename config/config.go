// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Address  string
	Env      string
	LogLevel string
	LogDir   string

	// Outbound API credentials. Empty keys disable the corresponding tool.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	SearchAPIKey  string
	SearchAPIURL  string

	// Fetcher behaviour
	FetchTimeoutSec  int
	FetchMaxAttempts int
	FetchMaxBodyMB   int64

	MaxRequestBody int64 // Maximum request body size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvWithDefault("PORT", "8000"),
		Address:          getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:              getEnvWithDefault("ENV", "dev"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:           getEnvWithDefault("LOG_DIR", "logs"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
		SearchAPIURL:     getEnvWithDefault("SEARCH_API_URL", "https://serpapi.com/search"),
		FetchTimeoutSec:  getIntEnvWithDefault("FETCH_TIMEOUT_SEC", 30),
		FetchMaxAttempts: getIntEnvWithDefault("FETCH_MAX_ATTEMPTS", 3),
		FetchMaxBodyMB:   getInt64EnvWithDefault("FETCH_MAX_BODY_MB", 10),
		MaxRequestBody:   getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateURL(cfg.OpenAIBaseURL, "OPENAI_BASE_URL"); err != nil {
		return err
	}

	if err := validateURL(cfg.SearchAPIURL, "SEARCH_API_URL"); err != nil {
		return err
	}

	if cfg.FetchTimeoutSec < 1 || cfg.FetchTimeoutSec > 300 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_SEC: must be between 1 and 300, got: %d", cfg.FetchTimeoutSec)
	}

	if cfg.FetchMaxAttempts < 1 || cfg.FetchMaxAttempts > 10 {
		return fmt.Errorf("invalid FETCH_MAX_ATTEMPTS: must be between 1 and 10, got: %d", cfg.FetchMaxAttempts)
	}

	if cfg.FetchMaxBodyMB < 1 || cfg.FetchMaxBodyMB > 100 {
		return fmt.Errorf("invalid FETCH_MAX_BODY_MB: must be between 1 and 100, got: %d", cfg.FetchMaxBodyMB)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	// Check for localhost/loopback addresses first
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateURL validates that a config value is an absolute http(s) URL
func validateURL(raw, configName string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", configName, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: must be an http(s) URL, got: %s", configName, raw)
	}

	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host in URL: %s", configName, raw)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"SEARCH_API_KEY",
		"SEARCH_API_URL",
		"FETCH_TIMEOUT_SEC",
		"FETCH_MAX_ATTEMPTS",
		"FETCH_MAX_BODY_MB",
		"MAX_REQUEST_BODY",
	}
}
