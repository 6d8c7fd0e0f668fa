package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
type MetricsCollector interface {
	// RecordDeploy records a deployment request reaching the coordinator.
	RecordDeploy(name string)

	// RecordUndeploy records an undeploy request reaching the coordinator.
	RecordUndeploy(name string)

	// RecordAssignment records a computed assignment and its total target.
	RecordAssignment(name string, topologyVersion int64, total int)

	// RecordInstanceStarted records a successfully started instance.
	RecordInstanceStarted(name string)

	// RecordInstanceCancelled records a cancelled instance.
	RecordInstanceCancelled(name string)

	// RecordInstanceInitFailure records an instance that failed Init.
	RecordInstanceInitFailure(name string)

	// RecordProxyCall records a proxied service invocation. remote is false
	// when the call was served by a local instance.
	RecordProxyCall(name string, remote bool)

	// RecordCoordinatorChange records a coordinator role change.
	RecordCoordinatorChange(node string)
}
