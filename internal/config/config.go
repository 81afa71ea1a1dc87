package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime settings. Environment variables use the SAMWISE_ prefix,
// e.g. SAMWISE_DB_DRIVER, SAMWISE_DB_PATH.
type Config struct {
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// StrictReferences makes writes check that advisory references point at existing rows.
	StrictReferences bool `envconfig:"STRICT_REFERENCES" default:"false"`

	// User is the acting user for CLI commands when --user is not given.
	User string `envconfig:"USER" default:""`
}

// New parses the environment and fills derived defaults.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("SAMWISE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns an in-memory sqlite configuration.
func NewForTesting() *Config {
	return &Config{
		DBDriver:  DriverSQLite,
		DBPath:    ":memory:",
		LogLevel:  "disabled",
		LogFormat: "json",
	}
}

// ResolveDefaults derives the sqlite path when none was configured.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == DriverSQLite && c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DBPath = filepath.Join(home, ".samwise", "samwise.db")
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat)
	}
	return nil
}
