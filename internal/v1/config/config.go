package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration
type Config struct {
	// Required variables
	DatabaseURL  string
	ListenAddr   string
	JWTSecretKey string

	// Optional variables with defaults
	GoEnv          string
	LogLevel       string
	AssetsDir      string
	AllowedOrigins string

	// Rate Limits
	RateLimitAPIPublic string
	RateLimitAPIUser   string
	RateLimitWsIP      string
	RateLimitWsUser    string
}

// Development reports whether the service runs in development mode.
func (c *Config) Development() bool {
	return c.GoEnv != "production"
}

// ValidateEnv validates all required environment variables and returns a Config object
// Returns an error if any required variable is missing or invalid
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required")
	}

	// Required: WS_URL (listener bind address, format: host:port)
	cfg.ListenAddr = os.Getenv("WS_URL")
	if cfg.ListenAddr == "" {
		errors = append(errors, "WS_URL is required")
	} else if !isValidHostPort(cfg.ListenAddr) {
		errors = append(errors, fmt.Sprintf("WS_URL must be in format 'host:port' (got '%s')", cfg.ListenAddr))
	}

	// Required: JWT_SECRET_KEY
	cfg.JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if cfg.JWTSecretKey == "" {
		errors = append(errors, "JWT_SECRET_KEY is required")
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Optional: ASSETS_DIR (static assets served as a fallback route)
	cfg.AssetsDir = getEnvOrDefault("ASSETS_DIR", "./assets")

	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	// Rate Limits (Defaults: M = Minute, H = Hour)
	cfg.RateLimitAPIPublic = getEnvOrDefault("RATE_LIMIT_API_PUBLIC", "100-M")
	cfg.RateLimitAPIUser = getEnvOrDefault("RATE_LIMIT_API_USER", "1000-M")
	cfg.RateLimitWsIP = getEnvOrDefault("RATE_LIMIT_WS_IP", "100-M")
	cfg.RateLimitWsUser = getEnvOrDefault("RATE_LIMIT_WS_USER", "10-M")

	// If there are validation errors, return them
	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	// Log validated configuration (with secrets redacted)
	logValidatedConfig(cfg)

	return cfg, nil
}

// isValidHostPort checks if a string is in the format "host:port"
func isValidHostPort(addr string) bool {
	idx := strings.LastIndex(addr, ":")
	if idx <= 0 || idx == len(addr)-1 {
		return false
	}

	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	return true
}

// logValidatedConfig logs the validated configuration with secrets redacted
func logValidatedConfig(cfg *Config) {
	slog.Info("Environment configuration validated successfully")
	slog.Info("Configuration",
		"database_url", redactSecret(cfg.DatabaseURL),
		"listen_addr", cfg.ListenAddr,
		"jwt_secret_key", redactSecret(cfg.JWTSecretKey),
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"assets_dir", cfg.AssetsDir,
		"rate_limit_api_public", cfg.RateLimitAPIPublic,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// redactSecret redacts a secret by showing only the first 8 characters
func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "***"
}
