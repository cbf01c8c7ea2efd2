package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Server(t *testing.T) {
	t.Run("ENERGYGRID_SERVER overrides base URL", func(t *testing.T) {
		t.Setenv("ENERGYGRID_SERVER", "https://env.example.com")

		cfg := DefaultConfig()
		cfg.Server.BaseURL = "https://file.example.com"
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://env.example.com", cfg.Server.BaseURL)
	})

	t.Run("ENERGYGRID_TIMEOUT overrides timeout string", func(t *testing.T) {
		t.Setenv("ENERGYGRID_TIMEOUT", "90s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "90s", cfg.Server.Timeout)
	})

	t.Run("ENERGYGRID_MAX_RETRIES must be a non-negative int", func(t *testing.T) {
		t.Setenv("ENERGYGRID_MAX_RETRIES", "7")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 7, cfg.Server.MaxRetries)

		t.Setenv("ENERGYGRID_MAX_RETRIES", "lots")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 3, cfg.Server.MaxRetries, "garbage value should keep default")

		t.Setenv("ENERGYGRID_MAX_RETRIES", "-2")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 3, cfg.Server.MaxRetries, "negative value should keep default")
	})

	t.Run("empty env leaves file value alone", func(t *testing.T) {
		t.Setenv("ENERGYGRID_SERVER", "")

		cfg := DefaultConfig()
		cfg.Server.BaseURL = "https://file.example.com"
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://file.example.com", cfg.Server.BaseURL)
	})
}

func TestEnvOverrides_Toggles(t *testing.T) {
	truthy := []string{"1", "true", "yes", "on", "TRUE", "Yes"}
	for _, v := range truthy {
		t.Run("ENERGYGRID_DEBUG="+v, func(t *testing.T) {
			t.Setenv("ENERGYGRID_DEBUG", v)
			cfg := DefaultConfig()
			cfg.applyEnvOverrides()
			assert.True(t, cfg.Logging.Debug)
		})
	}

	t.Run("ENERGYGRID_CACHE=false disables cache", func(t *testing.T) {
		t.Setenv("ENERGYGRID_CACHE", "false")
		cfg := DefaultConfig()
		require.True(t, cfg.Cache.Enabled)
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Cache.Enabled)
	})

	t.Run("ENERGYGRID_METRICS=0 disables metrics", func(t *testing.T) {
		t.Setenv("ENERGYGRID_METRICS", "0")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Metrics.Enabled)
	})
}

func TestEnvOverrides_UIAndLogging(t *testing.T) {
	t.Setenv("ENERGYGRID_THEME", "light")
	t.Setenv("ENERGYGRID_BUILDING", "bldg-7")
	t.Setenv("ENERGYGRID_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "bldg-7", cfg.UI.DefaultBuilding)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrides_Home(t *testing.T) {
	t.Run("ENERGYGRID_HOME relocates the config dir", func(t *testing.T) {
		t.Setenv("ENERGYGRID_HOME", "/opt/energygrid")
		assert.Equal(t, "/opt/energygrid", Dir())
	})

	t.Run("falls back to ~/.energygrid", func(t *testing.T) {
		t.Setenv("ENERGYGRID_HOME", "")
		dir := Dir()
		require.NotEmpty(t, dir)
		assert.Contains(t, dir, ".energygrid")
	})
}
