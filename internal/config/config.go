// Package config manages the EnergyGrid CLI configuration.
//
// Configuration lives in a single YAML file under the config directory
// (~/.energygrid by default, ENERGYGRID_HOME to relocate). Values resolve
// in three layers: compiled defaults, then the YAML file, then ENERGYGRID_*
// environment variables. Durations are stored as strings ("30s", "5m") so
// the file stays hand-editable; the Get* helpers parse them with fallbacks.
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

// Config is the unified configuration for the CLI.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the API endpoint and transport tuning.
type ServerConfig struct {
	BaseURL            string `yaml:"base_url"`
	Timeout            string `yaml:"timeout"`
	MaxRetries         int    `yaml:"max_retries"`
	RetryBaseDelay     string `yaml:"retry_base_delay"`
	RetryMaxDelay      string `yaml:"retry_max_delay"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// CacheConfig controls the local response cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"` // empty means <config dir>/cache.db
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	Theme           string `yaml:"theme"` // dark, light
	RefreshInterval string `yaml:"refresh_interval"`
	DefaultBuilding string `yaml:"default_building"`
}

// LoggingConfig mirrors the logging package's file-based debug logs.
type LoggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
	JSONFormat bool            `yaml:"json_format"`
}

// MetricsConfig controls local request metrics collection.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means <config dir>/metrics.json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "",
			Timeout:        "30s",
			MaxRetries:     3,
			RetryBaseDelay: "500ms",
			RetryMaxDelay:  "8s",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        "5m",
			MaxEntries: 10000,
		},
		UI: UIConfig{
			Theme:           "dark",
			RefreshInterval: "30s",
		},
		Logging: LoggingConfig{
			Debug: false,
			Level: "debug",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Dir returns the config directory, creating nothing. ENERGYGRID_HOME wins;
// otherwise it is ~/.energygrid.
func Dir() string {
	if dir := os.Getenv("ENERGYGRID_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".energygrid"
	}
	return filepath.Join(home, ".energygrid")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config file at path, layering it over defaults and then
// applying environment overrides. A missing file is not an error: the
// defaults plus environment are returned.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile reads the config file over defaults without environment
// overrides. Editing commands use it so a session's env vars never get
// baked into the saved file.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies ENERGYGRID_* environment variables on top of
// whatever the file provided.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ENERGYGRID_SERVER"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("ENERGYGRID_TIMEOUT"); v != "" {
		c.Server.Timeout = v
	}
	if v := os.Getenv("ENERGYGRID_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Server.MaxRetries = n
		}
	}
	if v := os.Getenv("ENERGYGRID_INSECURE"); v != "" {
		c.Server.InsecureSkipVerify = isTruthy(v)
	}
	if v := os.Getenv("ENERGYGRID_CACHE"); v != "" {
		c.Cache.Enabled = isTruthy(v)
	}
	if v := os.Getenv("ENERGYGRID_CACHE_TTL"); v != "" {
		c.Cache.TTL = v
	}
	if v := os.Getenv("ENERGYGRID_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("ENERGYGRID_BUILDING"); v != "" {
		c.UI.DefaultBuilding = v
	}
	if v := os.Getenv("ENERGYGRID_DEBUG"); v != "" {
		c.Logging.Debug = isTruthy(v)
	}
	if v := os.Getenv("ENERGYGRID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENERGYGRID_METRICS"); v != "" {
		c.Metrics.Enabled = isTruthy(v)
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetServerTimeout returns the per-request timeout.
func (c *Config) GetServerTimeout() time.Duration {
	return parseDuration(c.Server.Timeout, 30*time.Second)
}

// GetRetryBaseDelay returns the first-retry backoff delay.
func (c *Config) GetRetryBaseDelay() time.Duration {
	return parseDuration(c.Server.RetryBaseDelay, 500*time.Millisecond)
}

// GetRetryMaxDelay returns the backoff ceiling.
func (c *Config) GetRetryMaxDelay() time.Duration {
	return parseDuration(c.Server.RetryMaxDelay, 8*time.Second)
}

// GetCacheTTL returns how long cached responses stay fresh.
func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 5*time.Minute)
}

// GetRefreshInterval returns the dashboard auto-refresh period.
func (c *Config) GetRefreshInterval() time.Duration {
	return parseDuration(c.UI.RefreshInterval, 30*time.Second)
}

// CachePath returns the cache database path, defaulting under the config dir.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(Dir(), "cache.db")
}

// MetricsPath returns the metrics file path, defaulting under the config dir.
func (c *Config) MetricsPath() string {
	if c.Metrics.Path != "" {
		return c.Metrics.Path
	}
	return filepath.Join(Dir(), "metrics.json")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration for values that would break at runtime.
func (c *Config) Validate() error {
	if c.Server.BaseURL != "" &&
		!strings.HasPrefix(c.Server.BaseURL, "http://") &&
		!strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must start with http:// or https://, got %q", c.Server.BaseURL)
	}
	if c.Server.MaxRetries < 0 {
		return fmt.Errorf("server.max_retries must be >= 0, got %d", c.Server.MaxRetries)
	}
	if _, err := time.ParseDuration(c.Server.Timeout); c.Server.Timeout != "" && err != nil {
		return fmt.Errorf("server.timeout: %w", err)
	}
	switch c.UI.Theme {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be dark or light, got %q", c.UI.Theme)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0, got %d", c.Cache.MaxEntries)
	}
	return nil
}
