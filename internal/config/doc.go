// Package config provides 12-factor configuration for PipeKit.
//
// Configuration is loaded from PIPEKIT_* environment variables with sensible
// defaults. Everything here is optional: the library works with the zero
// configuration, and hosts override individual variables to change logging,
// metrics, or shell behavior.
//
// Configuration Sections:
//   - Logging: log level and output format
//   - Metrics: Prometheus instrumentation toggle
//   - Shell: interpreter used for sourcing scripts, default poll granularity
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("sourcing scripts with %s\n", cfg.Shell.Path)
//
// Environment Variables:
//   - PIPEKIT_LOG_LEVEL, PIPEKIT_LOG_DEV
//   - PIPEKIT_METRICS_ENABLED
//   - PIPEKIT_SHELL_PATH, PIPEKIT_POLL_INTERVAL
package config
