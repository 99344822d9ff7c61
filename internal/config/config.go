// ABOUTME: Configuration loading and parsing for parley clients
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389/parley/internal/kv"
)

// Config represents the complete parley configuration
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Store   kv.Config     `yaml:"store"`
	Chat    ChatConfig    `yaml:"chat"`
	Tenant  TenantConfig  `yaml:"tenant"`
	Console ConsoleConfig `yaml:"console"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig holds the backend API connection settings
type BackendConfig struct {
	URL string `yaml:"url"`

	// AdminToken is the bearer credential for /api/admin endpoints.
	// Optional; admin-only features degrade gracefully without it.
	AdminToken string `yaml:"admin_token"`
}

// ChatConfig holds conversation behavior settings. Omitted (zero) values
// for min_delay and history_limit select the controller defaults of 600ms
// and 10 messages; neither can be configured to zero.
type ChatConfig struct {
	MinDelay     time.Duration `yaml:"-"`
	HistoryLimit int           `yaml:"history_limit"`
	DefaultAgent string        `yaml:"default_agent"`

	// Raw string value for YAML unmarshaling
	MinDelayRaw string `yaml:"min_delay"`
}

// TenantConfig holds tenant catalog settings
type TenantConfig struct {
	RefreshInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RefreshIntervalRaw string `yaml:"refresh_interval"`
}

// ConsoleConfig holds web console settings
type ConsoleConfig struct {
	Addr string `yaml:"addr"`

	// PasswordHash is the bcrypt hash for console login. Empty disables
	// the login gate (local development).
	PasswordHash string `yaml:"password_hash"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}

	switch c.Store.Driver {
	case "", kv.DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case kv.DriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	case kv.DriverMemory:
		// Nothing to validate
	default:
		return fmt.Errorf("store.driver %q is not recognized", c.Store.Driver)
	}

	if c.Chat.HistoryLimit < 0 {
		return fmt.Errorf("chat.history_limit must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Chat.MinDelayRaw != "" {
		cfg.Chat.MinDelay, err = time.ParseDuration(cfg.Chat.MinDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing min_delay %q: %w", cfg.Chat.MinDelayRaw, err)
		}
	}

	if cfg.Tenant.RefreshIntervalRaw != "" {
		cfg.Tenant.RefreshInterval, err = time.ParseDuration(cfg.Tenant.RefreshIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing refresh_interval %q: %w", cfg.Tenant.RefreshIntervalRaw, err)
		}
	}

	return nil
}
