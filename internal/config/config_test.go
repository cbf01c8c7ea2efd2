package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Timeout != "30s" {
		t.Errorf("expected Timeout=30s, got %s", cfg.Server.Timeout)
	}
	if cfg.Server.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.Server.MaxRetries)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", cfg.UI.Theme)
	}
	if cfg.Logging.Debug {
		t.Error("expected debug logging off by default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("ENERGYGRID_SERVER", "")
	t.Setenv("ENERGYGRID_THEME", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://grid.example.com"
	cfg.UI.DefaultBuilding = "bldg-12"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.BaseURL != "https://grid.example.com" {
		t.Errorf("expected BaseURL=https://grid.example.com, got %s", loaded.Server.BaseURL)
	}
	if loaded.UI.DefaultBuilding != "bldg-12" {
		t.Errorf("expected DefaultBuilding=bldg-12, got %s", loaded.UI.DefaultBuilding)
	}
	// Defaults survive a partial file.
	if loaded.Server.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", loaded.Server.MaxRetries)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ENERGYGRID_SERVER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Timeout != "30s" {
		t.Errorf("expected default Timeout, got %s", cfg.Server.Timeout)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("ENERGYGRID_SERVER", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := []byte("server:\n  base_url: https://grid.example.com\n")
	if err := os.WriteFile(path, partial, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://grid.example.com" {
		t.Errorf("expected BaseURL from file, got %s", cfg.Server.BaseURL)
	}
	if cfg.Server.RetryBaseDelay != "500ms" {
		t.Errorf("expected default RetryBaseDelay, got %s", cfg.Server.RetryBaseDelay)
	}
	if cfg.Cache.MaxEntries != 10000 {
		t.Errorf("expected default MaxEntries, got %d", cfg.Cache.MaxEntries)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got: %v", err)
	}

	cfg.Server.BaseURL = "grid.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for scheme-less base_url")
	}

	cfg.Server.BaseURL = "https://grid.example.com"
	cfg.UI.Theme = "solarized"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown theme")
	}

	cfg.UI.Theme = "light"
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown log level")
	}

	cfg.Logging.Level = "warn"
	cfg.Server.MaxRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative max_retries")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.GetServerTimeout(); got != 30*time.Second {
		t.Errorf("GetServerTimeout=%v, want 30s", got)
	}
	if got := cfg.GetRetryBaseDelay(); got != 500*time.Millisecond {
		t.Errorf("GetRetryBaseDelay=%v, want 500ms", got)
	}
	if got := cfg.GetCacheTTL(); got != 5*time.Minute {
		t.Errorf("GetCacheTTL=%v, want 5m", got)
	}

	// Garbage duration strings fall back rather than break the tool.
	cfg.Server.Timeout = "soon"
	if got := cfg.GetServerTimeout(); got != 30*time.Second {
		t.Errorf("GetServerTimeout fallback=%v, want 30s", got)
	}
	cfg.UI.RefreshInterval = "-5s"
	if got := cfg.GetRefreshInterval(); got != 30*time.Second {
		t.Errorf("GetRefreshInterval fallback=%v, want 30s", got)
	}
}

func TestConfig_Paths(t *testing.T) {
	t.Setenv("ENERGYGRID_HOME", "/tmp/eg-test-home")

	cfg := DefaultConfig()
	if got := cfg.CachePath(); got != filepath.Join("/tmp/eg-test-home", "cache.db") {
		t.Errorf("CachePath=%s", got)
	}
	if got := cfg.MetricsPath(); got != filepath.Join("/tmp/eg-test-home", "metrics.json") {
		t.Errorf("MetricsPath=%s", got)
	}

	cfg.Cache.Path = "/var/cache/eg.db"
	if got := cfg.CachePath(); got != "/var/cache/eg.db" {
		t.Errorf("CachePath override=%s", got)
	}

	if got := DefaultPath(); got != filepath.Join("/tmp/eg-test-home", "config.yaml") {
		t.Errorf("DefaultPath=%s", got)
	}
}
