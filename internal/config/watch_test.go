package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, path, baseURL string) {
	t.Helper()
	data := []byte("server:\n  base_url: " + baseURL + "\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	t.Setenv("ENERGYGRID_SERVER", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "https://one.example.com")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.debounce = 50 * time.Millisecond
	w.interval = 10 * time.Millisecond
	w.Start(ctx)
	defer w.Stop()

	writeConfigFile(t, path, "https://two.example.com")

	select {
	case cfg := <-changes:
		if cfg.Server.BaseURL != "https://two.example.com" {
			t.Errorf("expected reloaded BaseURL, got %s", cfg.Server.BaseURL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "https://one.example.com")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.debounce = 50 * time.Millisecond
	w.interval = 10 * time.Millisecond
	w.Start(ctx)
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{}"), 0600); err != nil {
		t.Fatalf("write sibling file: %v", err)
	}

	select {
	case <-changes:
		t.Error("sibling file write should not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_InvalidConfigNotDelivered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "https://one.example.com")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.debounce = 50 * time.Millisecond
	w.interval = 10 * time.Millisecond
	w.Start(ctx)
	defer w.Stop()

	// A base URL without a scheme fails Validate, so the broken config
	// must never reach the callback.
	writeConfigFile(t, path, "no-scheme.example.com")

	select {
	case cfg := <-changes:
		t.Errorf("invalid config was delivered: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}
