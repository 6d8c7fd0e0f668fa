package ignite

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SavtechSolutions/ignite/internal/metrics"
)

// NewPrometheusMetrics creates a Prometheus-backed metrics collector for
// WithMetrics. It registers counters for deploys, assignments, instance
// lifecycle events, proxy calls and coordinator changes.
//
// Parameters:
//   - reg: Target registerer; nil uses prometheus.DefaultRegisterer
//   - namespace: Metric namespace; empty defaults to "ignite"
//
// Returns:
//   - MetricsCollector: Collector to pass to WithMetrics
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}
