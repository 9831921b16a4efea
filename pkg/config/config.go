package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server" jsonschema:"description=Server configuration"`
	Auth       AuthConfig       `yaml:"auth" json:"auth" jsonschema:"description=Trigger endpoint authorization"`
	Database   DatabaseConfig   `yaml:"database" json:"database" jsonschema:"description=Database configuration"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest" jsonschema:"description=Feed ingestion configuration"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`
}

// ServerConfig holds http server settings
type ServerConfig struct {
	Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=HTTP server timeout"`
}

// AuthConfig holds the shared secret of the trigger endpoint
type AuthConfig struct {
	Secret string `yaml:"secret" json:"secret" jsonschema:"description=Bearer token required by /api/rss-fetch (can use environment variable)"`
}

// DatabaseConfig holds article store settings
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:plainly.db?cache=shared&mode=rwc&_txlock=immediate,description=SQLite DSN or postgres:// URL"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
}

// IngestConfig holds feed ingestion settings
type IngestConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" jsonschema:"default=15s,description=Timeout of a single feed fetch"`
	MaxWorkers   int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=0,minimum=0,description=Maximum concurrent feed fetches (0 means one per feed)"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; Plainly/1.0),description=User agent for feed requests"`
	Schedule     string        `yaml:"schedule" json:"schedule" jsonschema:"description=Cron spec of scheduled runs (empty disables the scheduler)"`
	RunOnStart   bool          `yaml:"run_on_start" json:"run_on_start" jsonschema:"default=false,description=Run ingestion right after the scheduler starts"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Extract page text for items without content"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Extraction timeout per article"`
	RateLimit     float64       `yaml:"rate_limit" json:"rate_limit" jsonschema:"default=1,minimum=0,description=Pages per second (0 means unlimited)"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,minimum=0,description=Minimum text length to consider valid"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; Plainly/1.0),description=User agent for page requests"`
}

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; Plainly/1.0)"
	defaultRateLimit = 1.0
)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	// rate_limit default is set before decoding, explicit 0 in the file means unlimited
	cfg := Config{Extraction: ExtractionConfig{RateLimit: defaultRateLimit}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// schema validation is supplementary, mismatch is only reported
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		lgr.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

// Default returns configuration with all defaults set, used when no config file is given
func Default() *Config {
	cfg := &Config{Extraction: ExtractionConfig{RateLimit: defaultRateLimit}}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 60 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:plainly.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Ingest.FetchTimeout == 0 {
		c.Ingest.FetchTimeout = 15 * time.Second
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = defaultUserAgent
	}

	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 10 * time.Second
	}
	if c.Extraction.MinTextLength == 0 {
		c.Extraction.MinTextLength = 100
	}
	if c.Extraction.UserAgent == "" {
		c.Extraction.UserAgent = defaultUserAgent
	}
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if c.Ingest.FetchTimeout < time.Second {
		return fmt.Errorf("ingest fetch_timeout must be at least 1 second")
	}
	if c.Ingest.MaxWorkers < 0 {
		return fmt.Errorf("ingest max_workers must be non-negative")
	}

	if c.Extraction.Enabled {
		if c.Extraction.Timeout < time.Second {
			return fmt.Errorf("extraction timeout must be at least 1 second")
		}
		if c.Extraction.RateLimit < 0 {
			return fmt.Errorf("extraction rate_limit must be non-negative")
		}
		if c.Extraction.MinTextLength < 0 {
			return fmt.Errorf("extraction min_text_length must be non-negative")
		}
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetSecret returns the trigger endpoint secret
func (c *Config) GetSecret() string {
	return c.Auth.Secret
}
