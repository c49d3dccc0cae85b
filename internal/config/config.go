package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port    string
	Debug   bool
	BaseURL string // public origin, used for OAuth redirect URLs

	// Upstream services
	SearchAPIBaseURL string // Global Search API (posts/analytics/opportunity)
	LookupAPIBaseURL string // Company Lookup API

	// Proxy response caching
	PostsCacheTTL     time.Duration
	AnalyticsCacheTTL time.Duration

	// Identity provider (OAuth2 authorization-code flow)
	GoogleClientID     string
	GoogleClientSecret string
	SessionSecret      string
	SessionTTL         time.Duration

	// Datastore for the user-action log
	DatabaseURL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		Debug:   getBoolEnv("DEBUG", false),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		SearchAPIBaseURL: getEnv("SEARCH_API_BASE_URL", "https://global-search-api-a2kpxwo5oq-uc.a.run.app"),
		LookupAPIBaseURL: getEnv("LOOKUP_API_BASE_URL", "https://company-lookup-api-1084464085676.us-central1.run.app"),

		PostsCacheTTL:     getDurationEnv("POSTS_CACHE_TTL", 10*time.Minute),
		AnalyticsCacheTTL: getDurationEnv("ANALYTICS_CACHE_TTL", 2*time.Hour),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         getDurationEnv("SESSION_TTL", 30*24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SearchAPIBaseURL == "" {
		return fmt.Errorf("SEARCH_API_BASE_URL must not be empty")
	}

	if strings.HasSuffix(c.SearchAPIBaseURL, "/") {
		c.SearchAPIBaseURL = strings.TrimRight(c.SearchAPIBaseURL, "/")
	}
	if strings.HasSuffix(c.LookupAPIBaseURL, "/") {
		c.LookupAPIBaseURL = strings.TrimRight(c.LookupAPIBaseURL, "/")
	}

	// Sign-in and action logging are optional in development, but they come
	// as a pair: a session cookie cannot be issued without a signing secret.
	if c.GoogleClientID != "" || c.GoogleClientSecret != "" {
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required when Google sign-in is configured")
		}
	}

	return nil
}

// AuthEnabled reports whether the identity provider is configured
func (c *Config) AuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
