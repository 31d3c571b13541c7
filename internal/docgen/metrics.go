// internal/docgen/metrics.go
package docgen

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for documentation generation.
type Metrics struct {
	InvocationsTotal *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
}

// NewMetrics creates and registers the docgen metrics. sync.Once guards
// against duplicate collector registration when multiple services share the
// default registry.
//
// Metrics:
//   - docgen_invocations_total{prompt, status} - Count of generation runs
//   - docgen_duration_seconds{prompt} - Histogram of end-to-end run times
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			InvocationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "docgen_invocations_total",
					Help: "Total number of documentation generation runs",
				},
				[]string{"prompt", "status"},
			),
			Duration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "docgen_duration_seconds",
					Help:    "End-to-end duration of generation runs in seconds",
					Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
				},
				[]string{"prompt"},
			),
		}
	})
	return globalMetrics
}

// RecordRun records one generation run outcome with its duration.
func (m *Metrics) RecordRun(promptName, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.InvocationsTotal.WithLabelValues(promptName, status).Inc()
	m.Duration.WithLabelValues(promptName).Observe(durationSeconds)
}
