package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// PlaceholderEncryptionKey is the development default. Production startup
// refuses to run with it.
const PlaceholderEncryptionKey = "whalemap-dev-32-byte-key-here!!!"

// Config holds the configuration for the whalemap service.
// Environment variables are parsed from the WHALEMAP_ prefix,
// e.g. WHALEMAP_HTTP_PORT, WHALEMAP_POSTGRES_DSN.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: "postgres" or "sqlite"
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"whalemap.db"`

	// Docker Hub
	HubAPIURL string `envconfig:"HUB_API_URL" default:"https://hub.docker.com/v2"`

	// Token encryption key, must be exactly 32 bytes (AES-256).
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" default:"whalemap-dev-32-byte-key-here!!!"`

	// Scheduler
	SyncCronSpec    string `envconfig:"SYNC_CRON" default:"0 */6 * * *"`
	CleanupCronSpec string `envconfig:"CLEANUP_CRON" default:"0 0 * * *"`

	// Worker pool capacity for fire-and-forget syncs.
	SyncWorkers int `envconfig:"SYNC_WORKERS" default:"4"`
}

// New creates a Config by parsing environment variables and validating it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WHALEMAP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the fail-fast startup rules.
func (c *Config) Validate() error {
	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("WHALEMAP_ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(c.EncryptionKey))
	}
	if c.IsProduction() && c.EncryptionKey == PlaceholderEncryptionKey {
		return fmt.Errorf("WHALEMAP_ENCRYPTION_KEY must be changed in production")
	}
	switch c.DBDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("WHALEMAP_POSTGRES_DSN is required with DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("WHALEMAP_SQLITE_PATH is required with DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	return nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
