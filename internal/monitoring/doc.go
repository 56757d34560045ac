// Package monitoring provides Prometheus instrumentation for pipeline
// executions: spawn counts, exit outcomes, delivered signals, and process
// lifetimes.
//
// Metrics register on the default Prometheus registry unless disabled via
// PIPEKIT_METRICS_ENABLED=false, in which case they are still collected but
// kept on a private registry so hosts scrape nothing.
package monitoring
