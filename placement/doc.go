// Package placement implements the assignment engine: the pure,
// deterministic computation that turns a service configuration and a
// topology snapshot into a target per-node instance count map.
//
// The engine performs no I/O. Determinism is a hard requirement: computing
// an assignment twice against the same (configuration, topology) pair must
// yield identical maps, and ties are always broken by ascending node ID, so
// that independent recomputations by different components converge to the
// same placement without coordination.
package placement
