package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all library configuration.
type Config struct {
	Logging LogConfig
	Metrics MetricsConfig
	Shell   ShellConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds Prometheus instrumentation configuration.
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

// ShellConfig holds shell collaborator configuration.
type ShellConfig struct {
	// Path is the POSIX shell used by Shell.Source.
	Path string `envconfig:"SHELL_PATH" default:"/bin/sh"`
	// PollInterval is the default granularity for bounded status polling.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"50ms"`
}

// Load loads configuration from PIPEKIT_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("pipekit", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Shell: ShellConfig{
			Path:         "/bin/sh",
			PollInterval: 50 * time.Millisecond,
		},
	}
}
