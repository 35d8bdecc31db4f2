package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissing is returned by Validate when required settings are absent
var ErrMissing = errors.New("missing required settings")

// ErrInvalid is returned by Validate when settings don't match the config schema
var ErrInvalid = errors.New("invalid settings")

// Config holds the application configuration
type Config struct {
	SMTP      SMTPConfig    `yaml:"smtp" json:"smtp" jsonschema:"description=SMTP relay configuration"`
	Recipient string        `yaml:"recipient" json:"recipient" jsonschema:"description=Digest recipient address"`
	Feeds     FeedsConfig   `yaml:"feeds,omitempty" json:"feeds,omitempty" jsonschema:"description=Feed fetching configuration"`
	Preview   PreviewConfig `yaml:"preview,omitempty" json:"preview,omitempty" jsonschema:"description=Preview server configuration"`
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string        `yaml:"host" json:"host" jsonschema:"description=SMTP relay host"`
	Port     int           `yaml:"port" json:"port" jsonschema:"minimum=1,maximum=65535,description=SMTP relay port"`
	Username string        `yaml:"username" json:"username" jsonschema:"description=SMTP user name and default sender"`
	Password string        `yaml:"password" json:"password" jsonschema:"description=SMTP password (can use environment variable)"`
	From     string        `yaml:"from,omitempty" json:"from,omitempty" jsonschema:"description=Sender address (defaults to username)"`
	TLS      string        `yaml:"tls,omitempty" json:"tls,omitempty" jsonschema:"enum=mandatory,enum=opportunistic,enum=none,default=mandatory,description=STARTTLS policy"`
	SSL      bool          `yaml:"ssl,omitempty" json:"ssl,omitempty" jsonschema:"default=false,description=Use implicit TLS instead of STARTTLS"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=SMTP dial and command timeout (default 30s)"`
}

// FeedsConfig holds feed fetching settings
type FeedsConfig struct {
	OPML      string        `yaml:"opml,omitempty" json:"opml,omitempty" jsonschema:"default=feeds.opml,description=Path to the OPML subscription file"`
	BatchSize int           `yaml:"batch_size,omitempty" json:"batch_size,omitempty" jsonschema:"default=10,minimum=1,description=Maximum feeds fetched concurrently"`
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Per-feed fetch timeout (default 15s)"`
	UserAgent string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty" jsonschema:"description=User agent for feed requests"`
}

// PreviewConfig holds preview server settings
type PreviewConfig struct {
	Listen  string        `yaml:"listen,omitempty" json:"listen,omitempty" jsonschema:"default=127.0.0.1:8080,description=Preview server listen address"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Preview server write timeout (default 60s)"`
}

// Load reads configuration from a YAML file. Environment variables in the file are expanded.
// Required settings are not checked here, they can come from CLI or environment, call Validate after merging.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults fills in unset optional values
func (c *Config) SetDefaults() {
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "mandatory"
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 30 * time.Second
	}
	if c.Feeds.OPML == "" {
		c.Feeds.OPML = "feeds.opml"
	}
	if c.Feeds.BatchSize == 0 {
		c.Feeds.BatchSize = 10
	}
	if c.Feeds.Timeout == 0 {
		c.Feeds.Timeout = 15 * time.Second
	}
	if c.Preview.Listen == "" {
		c.Preview.Listen = "127.0.0.1:8080"
	}
	if c.Preview.Timeout == 0 {
		c.Preview.Timeout = 60 * time.Second
	}
}

// Validate checks that all required settings are present and optional ones are sane.
// Missing settings are reported together, by their environment variable names.
func (c *Config) Validate() error {
	var missing []string
	if c.SMTP.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.SMTP.Port == 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if c.SMTP.Username == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.SMTP.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if c.Recipient == "" {
		missing = append(missing, "RECIPIENT_EMAIL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if err := verifySchema(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Feeds.BatchSize < 1 {
		return fmt.Errorf("feeds batch_size must be at least 1")
	}
	if c.Feeds.Timeout < time.Millisecond {
		return fmt.Errorf("feeds timeout must be positive")
	}
	return nil
}

// GetServerConfig returns preview server listen address and timeout
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Preview.Listen, c.Preview.Timeout
}
