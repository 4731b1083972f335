// Package config provides application configuration management with
// environment variable loading, validation, and sensible defaults. It
// supports .env files for local development and validates all required
// settings on startup to prevent runtime configuration errors.
//
// Configuration is loaded from environment variables with the Load()
// function, which returns a validated Config struct or an error if
// required variables are missing or invalid.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
//	server := &http.Server{
//	    Addr: ":" + cfg.Server.Port,
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the console. It aggregates all
// configuration sections into a single struct for easy access
// throughout the application.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Redis     RedisConfig
	Session   SessionConfig
	Cache     CacheConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds console server settings: listen port and runtime
// environment.
type ServerConfig struct {
	Port        string
	Environment string
}

// UpstreamConfig holds settings for the platform REST API the console
// fronts. The console is a pure client of this API: it owns no data of
// its own beyond sessions and cached reads.
type UpstreamConfig struct {
	BaseURL string        // Platform API base URL, e.g. "https://api.docops.io"
	Timeout time.Duration // Per-request timeout for upstream calls
}

// RedisConfig holds Redis connection parameters. Redis backs the
// session store, the query cache, and the login rate limiter.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int // Connection pool size
}

// SessionConfig holds console session settings: the browser cookie
// name and how long an idle session survives in Redis.
type SessionConfig struct {
	CookieName string
	Expiry     time.Duration
}

// CacheConfig holds freshness windows for cached upstream reads.
// Resource lists and single entities share one TTL; dashboard
// aggregates refresh on their own, slightly longer window.
type CacheConfig struct {
	ResourceTTL  time.Duration // Projects, integrations, syncs (default: 30s)
	DashboardTTL time.Duration // Stats and chart aggregates (default: 1m)
	Enabled      bool          // Master switch to disable caching entirely
}

// CORSConfig controls which browser origins may call the console API.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds login attempts per client IP to slow down
// credential stuffing against the upstream login endpoint.
type RateLimitConfig struct {
	RequestsPerMinute int
	WindowDuration    time.Duration
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present (for local development)
// but doesn't fail if the file is missing (for production deployments).
//
// Required environment variables:
//   - UPSTREAM_BASE_URL: Platform API base URL
//
// Optional environment variables have sensible defaults. See
// .env.example for a complete list.
//
// Returns an error if any required variable is missing or if
// validation fails.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	upstreamURL, err := getEnvRequired("UPSTREAM_BASE_URL")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENV", "development"),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(upstreamURL, "/"),
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "docops_sid"),
			Expiry:     getEnvAsDuration("SESSION_EXPIRY", 168*time.Hour), // 7 days
		},
		Cache: CacheConfig{
			ResourceTTL:  getEnvAsDuration("CACHE_RESOURCE_TTL", 30*time.Second),
			DashboardTTL: getEnvAsDuration("CACHE_DASHBOARD_TTL", time.Minute),
			Enabled:      getEnv("CACHE_ENABLED", "true") == "true",
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowDuration:    getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if all required configuration is present and valid.
// Called automatically by Load() but can also be called independently
// for testing.
//
// Returns an error describing the first validation failure
// encountered, or nil if all configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("redis port must be a valid integer: %w", err)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	if _, err := url.ParseRequestURI(c.Upstream.BaseURL); err != nil {
		return fmt.Errorf("invalid upstream base URL: %w", err)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.Session.Expiry <= 0 {
		return fmt.Errorf("session expiry must be positive")
	}

	return nil
}

// Address returns the Redis server address in "host:port" format.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{
//	    Addr: cfg.Redis.Address(),
//	})
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the console runs in production mode.
// Affects cookie security flags.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions for environment variable parsing

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired retrieves a required environment variable.
// Returns an error if the variable is not set or is empty.
func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an integer with a
// default fallback. If the variable is not set or cannot be parsed,
// returns defaultValue.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a
// time.Duration with a default fallback. Supports Go duration format:
// "300ms", "1.5h", "2h45m", etc.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves an environment variable as a string slice
// with a default fallback. Parses comma-separated values into a slice.
//
// Example:
//
//	// ALLOWED_ORIGINS=http://localhost:3000,https://console.docops.io
//	origins := getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
