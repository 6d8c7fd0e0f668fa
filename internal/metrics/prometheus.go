package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SavtechSolutions/ignite/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	deploys      *prometheus.CounterVec
	undeploys    *prometheus.CounterVec
	assignments  *prometheus.CounterVec
	targetTotal  *prometheus.GaugeVec
	started      *prometheus.CounterVec
	cancelled    *prometheus.CounterVec
	initFailures *prometheus.CounterVec
	proxyCalls   *prometheus.CounterVec
	coordChanges prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "ignite" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "ignite"
	}

	c := &PrometheusCollector{
		deploys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_deploys_total",
			Help:      "Deployment requests accepted by the coordinator.",
		}, []string{"service"}),
		undeploys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_undeploys_total",
			Help:      "Undeploy requests accepted by the coordinator.",
		}, []string{"service"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_assignments_total",
			Help:      "Assignments computed by the coordinator.",
		}, []string{"service"}),
		targetTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_target_instances",
			Help:      "Cluster-wide instance target from the latest assignment.",
		}, []string{"service"}),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_instances_started_total",
			Help:      "Service instances that completed Init on this node.",
		}, []string{"service"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_instances_cancelled_total",
			Help:      "Service instances cancelled on this node.",
		}, []string{"service"}),
		initFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_instance_init_failures_total",
			Help:      "Service instances that failed Init on this node.",
		}, []string{"service"}),
		proxyCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_proxy_calls_total",
			Help:      "Proxied service invocations by locality.",
		}, []string{"service", "target"}),
		coordChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinator_changes_total",
			Help:      "Coordinator role changes observed by this node.",
		}),
	}

	reg.MustRegister(
		c.deploys, c.undeploys, c.assignments, c.targetTotal,
		c.started, c.cancelled, c.initFailures, c.proxyCalls,
		c.coordChanges,
	)

	return c
}

// RecordDeploy increments the deploy counter for a service.
func (c *PrometheusCollector) RecordDeploy(name string) {
	c.deploys.WithLabelValues(name).Inc()
}

// RecordUndeploy increments the undeploy counter for a service.
func (c *PrometheusCollector) RecordUndeploy(name string) {
	c.undeploys.WithLabelValues(name).Inc()
}

// RecordAssignment records a computed assignment and its target total.
func (c *PrometheusCollector) RecordAssignment(name string, _ int64, total int) {
	c.assignments.WithLabelValues(name).Inc()
	c.targetTotal.WithLabelValues(name).Set(float64(total))
}

// RecordInstanceStarted increments the started instance counter.
func (c *PrometheusCollector) RecordInstanceStarted(name string) {
	c.started.WithLabelValues(name).Inc()
}

// RecordInstanceCancelled increments the cancelled instance counter.
func (c *PrometheusCollector) RecordInstanceCancelled(name string) {
	c.cancelled.WithLabelValues(name).Inc()
}

// RecordInstanceInitFailure increments the init failure counter.
func (c *PrometheusCollector) RecordInstanceInitFailure(name string) {
	c.initFailures.WithLabelValues(name).Inc()
}

// RecordProxyCall increments the proxy call counter by locality.
func (c *PrometheusCollector) RecordProxyCall(name string, remote bool) {
	target := "local"
	if remote {
		target = "remote"
	}
	c.proxyCalls.WithLabelValues(name, target).Inc()
}

// RecordCoordinatorChange increments the coordinator change counter.
func (c *PrometheusCollector) RecordCoordinatorChange(_ string) {
	c.coordChanges.Inc()
}
