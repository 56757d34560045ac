package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/PipeKit/internal/config"
)

// Exit outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeSignaled = "signaled"
)

// Metrics holds all Prometheus metrics for pipeline execution.
type Metrics struct {
	// Process metrics
	SpawnsTotal     prometheus.Counter
	ExitsTotal      *prometheus.CounterVec
	SignalsTotal    *prometheus.CounterVec
	ProcessDuration prometheus.Histogram

	// Pipeline metrics
	PipelinesActive prometheus.Gauge
	PipelinesTotal  prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics collector.
func Default() *Metrics {
	once.Do(func() {
		reg := prometheus.Registerer(prometheus.DefaultRegisterer)
		if !config.LoadOrDefault().Metrics.Enabled {
			reg = prometheus.NewRegistry()
		}
		defaultMetrics = New(reg)
	})
	return defaultMetrics
}

// New creates a metrics collector registered on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SpawnsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipekit_process_spawns_total",
			Help: "Total number of spawned pipeline processes",
		}),
		ExitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipekit_process_exits_total",
				Help: "Total number of reaped pipeline processes by outcome",
			},
			[]string{"outcome"},
		),
		SignalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipekit_signals_sent_total",
				Help: "Total number of signals delivered to pipeline processes",
			},
			[]string{"signal"},
		),
		ProcessDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipekit_process_duration_seconds",
			Help:    "Wall time from process spawn to reap",
			Buckets: []float64{.005, .025, .1, .5, 1, 5, 30, 120, 600},
		}),
		PipelinesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pipekit_pipelines_active",
			Help: "Number of pipelines currently running",
		}),
		PipelinesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipekit_pipelines_total",
			Help: "Total number of pipelines started",
		}),
	}
}

// ObserveExit records a reaped process with the signed status convention
// (negative statuses mean death by signal).
func (m *Metrics) ObserveExit(status int, seconds float64) {
	outcome := OutcomeOK
	switch {
	case status < 0:
		outcome = OutcomeSignaled
	case status > 0:
		outcome = OutcomeFailed
	}
	m.ExitsTotal.WithLabelValues(outcome).Inc()
	m.ProcessDuration.Observe(seconds)
}
