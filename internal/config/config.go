// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubUsername  string
	GitHubToken     string
	ListenAddr      string
	DBPath          string
	BackendURL      string
	GitHubAPIURL    string
	PrimaryTimeout  time.Duration
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	IgnoreFile      string
	MetricsEnabled  bool
}

// HasGitHubToken reports whether the caching backend can make authenticated
// GitHub calls.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. A .env file in the working directory is loaded first; variables
// already set in the environment take precedence over it.
//
// REPOFEED_GITHUB_USERNAME is required. Optional variables with defaults:
// REPOFEED_GITHUB_TOKEN (""), REPOFEED_LISTEN_ADDR (127.0.0.1:8080),
// REPOFEED_DB_PATH (repofeed.db), REPOFEED_BACKEND_URL
// (http://127.0.0.1:8080/api/github-repos), REPOFEED_GITHUB_API_URL
// (https://api.github.com/), REPOFEED_PRIMARY_TIMEOUT (3s),
// REPOFEED_CACHE_TTL (2h), REPOFEED_REFRESH_INTERVAL (2h),
// REPOFEED_IGNORE_FILE (""), REPOFEED_METRICS_ENABLED (false).
func Load() (*Config, error) {
	// A missing .env file is the normal case in containers.
	_ = godotenv.Load()

	username := os.Getenv("REPOFEED_GITHUB_USERNAME")
	if username == "" {
		return nil, errors.New("REPOFEED_GITHUB_USERNAME is required")
	}

	cfg := &Config{
		GitHubUsername: username,
		GitHubToken:    os.Getenv("REPOFEED_GITHUB_TOKEN"),
		ListenAddr:     stringOr("REPOFEED_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:         stringOr("REPOFEED_DB_PATH", "repofeed.db"),
		BackendURL:     stringOr("REPOFEED_BACKEND_URL", "http://127.0.0.1:8080/api/github-repos"),
		GitHubAPIURL:   stringOr("REPOFEED_GITHUB_API_URL", "https://api.github.com/"),
		IgnoreFile:     os.Getenv("REPOFEED_IGNORE_FILE"),
	}

	var err error
	if cfg.PrimaryTimeout, err = durationOr("REPOFEED_PRIMARY_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationOr("REPOFEED_CACHE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = durationOr("REPOFEED_REFRESH_INTERVAL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = boolOr("REPOFEED_METRICS_ENABLED", false); err != nil {
		return nil, err
	}

	if err := validateURL("REPOFEED_BACKEND_URL", cfg.BackendURL); err != nil {
		return nil, err
	}
	if err := validateURL("REPOFEED_GITHUB_API_URL", cfg.GitHubAPIURL); err != nil {
		return nil, err
	}

	return cfg, nil
}

func stringOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}

func boolOr(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s has invalid boolean %q: %w", key, v, err)
	}
	return parsed, nil
}

func validateURL(key, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%s has invalid URL %q: %w", key, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	return nil
}
