package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Metrics config
	assert.True(t, cfg.Metrics.Enabled)

	// Shell config
	assert.Equal(t, "/bin/sh", cfg.Shell.Path)
	assert.Equal(t, 50*time.Millisecond, cfg.Shell.PollInterval)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/bin/sh", cfg.Shell.Path)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PIPEKIT_LOG_LEVEL":       "debug",
		"PIPEKIT_LOG_DEV":         "true",
		"PIPEKIT_METRICS_ENABLED": "false",
		"PIPEKIT_SHELL_PATH":      "/bin/dash",
		"PIPEKIT_POLL_INTERVAL":   "100ms",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/bin/dash", cfg.Shell.Path)
	assert.Equal(t, 100*time.Millisecond, cfg.Shell.PollInterval)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("PIPEKIT_LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("PIPEKIT_LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "/bin/sh", cfg.Shell.Path)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestShellConfig(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		interval     string
		wantPath     string
		wantInterval time.Duration
	}{
		{
			name:         "default values",
			wantPath:     "/bin/sh",
			wantInterval: 50 * time.Millisecond,
		},
		{
			name:         "custom shell",
			path:         "/usr/bin/zsh",
			wantPath:     "/usr/bin/zsh",
			wantInterval: 50 * time.Millisecond,
		},
		{
			name:         "custom poll interval",
			interval:     "1s",
			wantPath:     "/bin/sh",
			wantInterval: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("PIPEKIT_SHELL_PATH")
			os.Unsetenv("PIPEKIT_POLL_INTERVAL")

			if tt.path != "" {
				err := os.Setenv("PIPEKIT_SHELL_PATH", tt.path)
				require.NoError(t, err)
				defer os.Unsetenv("PIPEKIT_SHELL_PATH")
			}
			if tt.interval != "" {
				err := os.Setenv("PIPEKIT_POLL_INTERVAL", tt.interval)
				require.NoError(t, err)
				defer os.Unsetenv("PIPEKIT_POLL_INTERVAL")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantPath, cfg.Shell.Path)
			assert.Equal(t, tt.wantInterval, cfg.Shell.PollInterval)
		})
	}
}
