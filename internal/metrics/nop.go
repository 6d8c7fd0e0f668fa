package metrics

import "github.com/SavtechSolutions/ignite/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	metrics := metrics.NewNop()
//	grid := ignite.New(&cfg, ignite.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordDeploy discards the deploy metric.
func (n *NopMetrics) RecordDeploy(_ /* name */ string) {
	// No-op
}

// RecordUndeploy discards the undeploy metric.
func (n *NopMetrics) RecordUndeploy(_ /* name */ string) {
	// No-op
}

// RecordAssignment discards the assignment metric.
func (n *NopMetrics) RecordAssignment(_ /* name */ string, _ /* topologyVersion */ int64, _ /* total */ int) {
	// No-op
}

// RecordInstanceStarted discards the instance start metric.
func (n *NopMetrics) RecordInstanceStarted(_ /* name */ string) {
	// No-op
}

// RecordInstanceCancelled discards the instance cancel metric.
func (n *NopMetrics) RecordInstanceCancelled(_ /* name */ string) {
	// No-op
}

// RecordInstanceInitFailure discards the init failure metric.
func (n *NopMetrics) RecordInstanceInitFailure(_ /* name */ string) {
	// No-op
}

// RecordProxyCall discards the proxy call metric.
func (n *NopMetrics) RecordProxyCall(_ /* name */ string, _ /* remote */ bool) {
	// No-op
}

// RecordCoordinatorChange discards the coordinator change metric.
func (n *NopMetrics) RecordCoordinatorChange(_ /* node */ string) {
	// No-op
}
