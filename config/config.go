// Package config provides configuration management for the postmeet service.
// It supports loading configuration from a YAML file with environment
// variable overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// IsValid reports whether the output format is one of the supported values.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	}
	return false
}

// String returns the string form of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// Default configuration values.
const (
	DefaultConfigDir  = ".postmeet"
	DefaultConfigFile = "config.yaml"

	DefaultRecallBaseURL   = "https://us-east-1.recall.ai/api/v1"
	DefaultRecallTimeout   = 30 * time.Second
	DefaultRecallBotName   = "Postmeet Notetaker"
	DefaultListenAddr      = "127.0.0.1:8484"
	DefaultPollInterval    = 30 * time.Second
	DefaultMaxPollAttempts = 120
	DefaultBatchSize       = 5
	DefaultItemDelay       = 500 * time.Millisecond
)

// PollingConfig holds the bot polling engine parameters.
type PollingConfig struct {
	// IntervalSeconds is the fixed delay between polling cycles.
	IntervalSeconds int `yaml:"interval_seconds"`

	// MaxPollAttempts bounds how many times a single meeting is polled
	// before it is permanently excluded from the eligible set.
	MaxPollAttempts int `yaml:"max_poll_attempts"`

	// BatchSize caps how many meetings one cycle processes.
	BatchSize int `yaml:"batch_size"`

	// ItemDelayMillis is the pause between consecutive meetings within a
	// cycle, to avoid bursting the remote API.
	ItemDelayMillis int `yaml:"item_delay_millis"`
}

// Interval returns the polling interval as a duration.
func (p *PollingConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// ItemDelay returns the inter-item delay as a duration.
func (p *PollingConfig) ItemDelay() time.Duration {
	return time.Duration(p.ItemDelayMillis) * time.Millisecond
}

// RecallConfig holds the remote bot API connection settings.
type RecallConfig struct {
	// BaseURL is the bot API base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token for the bot API. Usually supplied via the
	// POSTMEET_RECALL_API_KEY environment variable or the credential store
	// rather than the config file.
	APIKey string `yaml:"api_key,omitempty"`

	// TimeoutSeconds is the per-request timeout for bot API calls.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// BotName is the display name the dispatched bot joins calls with.
	BotName string `yaml:"bot_name"`
}

// Timeout returns the request timeout as a duration.
func (r *RecallConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis connection settings for event publishing.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// Addr returns the host:port address for the Redis client.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// WebConfig holds the HTTP API listener settings.
type WebConfig struct {
	// ListenAddr is the address the dashboard/lifecycle API binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// ServiceConfig is the top-level postmeet configuration.
type ServiceConfig struct {
	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogJSON enables JSON log output (production mode).
	LogJSON bool `yaml:"log_json"`

	// OutputFormat is the default CLI output format.
	OutputFormat OutputFormat `yaml:"output_format"`

	Polling  PollingConfig  `yaml:"polling"`
	Recall   RecallConfig   `yaml:"recall"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Web      WebConfig      `yaml:"web"`
}

// DefaultConfig returns a ServiceConfig populated with default values.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		LogLevel:     "info",
		OutputFormat: OutputFormatText,
		Polling: PollingConfig{
			IntervalSeconds: int(DefaultPollInterval / time.Second),
			MaxPollAttempts: DefaultMaxPollAttempts,
			BatchSize:       DefaultBatchSize,
			ItemDelayMillis: int(DefaultItemDelay / time.Millisecond),
		},
		Recall: RecallConfig{
			BaseURL:        DefaultRecallBaseURL,
			TimeoutSeconds: int(DefaultRecallTimeout / time.Second),
			BotName:        DefaultRecallBotName,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "postmeet",
			User:     "postmeet",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Web: WebConfig{
			ListenAddr: DefaultListenAddr,
		},
	}
}

// DefaultConfigPath returns the default config file location
// (~/.postmeet/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFile
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// LoadConfig loads configuration from the given path, falling back to the
// default location when path is empty. A missing file is not an error; the
// defaults are used. Environment variables override file values.
func LoadConfig(path string) (*ServiceConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies POSTMEET_* environment variables over cfg.
func applyEnvOverrides(cfg *ServiceConfig) {
	if v := os.Getenv("POSTMEET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("POSTMEET_LOG_JSON"); v != "" {
		cfg.LogJSON = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("POSTMEET_RECALL_BASE_URL"); v != "" {
		cfg.Recall.BaseURL = v
	}
	if v := os.Getenv("POSTMEET_RECALL_API_KEY"); v != "" {
		cfg.Recall.APIKey = v
	}
	if v := os.Getenv("POSTMEET_LISTEN_ADDR"); v != "" {
		cfg.Web.ListenAddr = v
	}
	if v := os.Getenv("POSTMEET_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTMEET_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("POSTMEET_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("POSTMEET_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTMEET_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTMEET_REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("POSTMEET_REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = p
		}
	}
	if v := os.Getenv("POSTMEET_POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Polling.IntervalSeconds = n
		}
	}
	if v := os.Getenv("POSTMEET_MAX_POLL_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Polling.MaxPollAttempts = n
		}
	}
	if v := os.Getenv("POSTMEET_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Polling.BatchSize = n
		}
	}
	if v := os.Getenv("POSTMEET_ITEM_DELAY_MILLIS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Polling.ItemDelayMillis = n
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *ServiceConfig) Validate() error {
	if c.OutputFormat != "" && !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output format: %q", c.OutputFormat)
	}
	if c.Polling.IntervalSeconds <= 0 {
		return fmt.Errorf("polling interval must be positive, got %d", c.Polling.IntervalSeconds)
	}
	if c.Polling.MaxPollAttempts <= 0 {
		return fmt.Errorf("max poll attempts must be positive, got %d", c.Polling.MaxPollAttempts)
	}
	// The batch cap is deliberately small to bound remote API call volume
	// and keep each cycle short relative to the polling interval.
	if c.Polling.BatchSize < 1 || c.Polling.BatchSize > 9 {
		return fmt.Errorf("batch size must be between 1 and 9, got %d", c.Polling.BatchSize)
	}
	if c.Polling.ItemDelayMillis < 0 {
		return fmt.Errorf("item delay must not be negative, got %d", c.Polling.ItemDelayMillis)
	}
	if c.Recall.BaseURL == "" {
		return fmt.Errorf("recall base URL is required")
	}
	if c.Recall.TimeoutSeconds <= 0 {
		return fmt.Errorf("recall timeout must be positive, got %d", c.Recall.TimeoutSeconds)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	return nil
}
