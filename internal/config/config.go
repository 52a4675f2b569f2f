package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects where data lives.
const (
	ModeBackend = "backend" // proxy to the upstream CRM API
	ModeLocal   = "local"   // self-contained sqlite store seeded from fixtures
)

// Config holds all configuration for planner
type Config struct {
	Mode     string
	Server   ServerConfig
	Upstream UpstreamConfig
	Store    StoreConfig
	Redis    RedisConfig
	Session  SessionConfig
	Janitor  JanitorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// UpstreamConfig holds upstream CRM API configuration (backend mode)
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StoreConfig holds local sqlite store configuration (local mode)
type StoreConfig struct {
	Path        string
	FixturesDir string
}

// RedisConfig holds Redis configuration; an empty address keeps
// sessions in process memory.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// SessionConfig holds API session configuration
type SessionConfig struct {
	TTL       time.Duration
	WizardTTL time.Duration
}

// JanitorConfig holds janitor worker configuration
type JanitorConfig struct {
	Interval time.Duration
}

// Load loads configuration from the environment, reading .env first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Mode: getEnv("PLANNER_MODE", ModeLocal),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_BASE_URL", "https://app.profsreda.com"),
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Path:        getEnv("STORE_PATH", "./planner.db"),
			FixturesDir: getEnv("FIXTURES_DIR", "./fixtures"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			WizardTTL: getEnvAsDuration("WIZARD_TTL", time.Hour),
		},
		Janitor: JanitorConfig{
			Interval: getEnvAsDuration("JANITOR_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Mode != ModeBackend && c.Mode != ModeLocal {
		return fmt.Errorf("invalid mode: %q (want %q or %q)", c.Mode, ModeBackend, ModeLocal)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Mode == ModeBackend && c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required in backend mode")
	}

	if c.Mode == ModeLocal && c.Store.Path == "" {
		return fmt.Errorf("store path is required in local mode")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
