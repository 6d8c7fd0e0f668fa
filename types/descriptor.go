package types

import "maps"

// InstanceCounts holds the monotonically increasing start/cancel counters a
// node reports for one deployment. The counters are never reset, so
// Started - Cancelled always equals the node's live instance count, even
// across topology churn.
type InstanceCounts struct {
	// Started is the total number of instances the node has started.
	Started uint64 `json:"started"`

	// Cancelled is the total number of instances the node has cancelled.
	Cancelled uint64 `json:"cancelled"`
}

// Live returns the number of currently running instances on the node.
func (c InstanceCounts) Live() int {
	return int(c.Started - c.Cancelled) //nolint:gosec // cancelled never exceeds started
}

// ServiceDescriptor is the observed state of one deployment, exposed to
// callers through the deployment registry.
//
// Per-node counts are derived from instance manager reports, not from the
// target assignment; the two may transiently differ while start or cancel
// commands are in flight.
type ServiceDescriptor struct {
	// Name is the deployment name.
	Name string `json:"name"`

	// Configuration is the deployed configuration (factory and filter are
	// code and do not appear in serialized form).
	Configuration ServiceConfiguration `json:"configuration"`

	// State is the deployment lifecycle state.
	State DeploymentState `json:"state"`

	// TopologyVersion is the version of the last assignment published for
	// this deployment.
	TopologyVersion int64 `json:"topologyVersion"`

	// Nodes maps node ID to that node's reported instance counters.
	Nodes map[string]InstanceCounts `json:"nodes,omitempty"`
}

// NodeCount returns the live instance count reported by the given node.
func (d ServiceDescriptor) NodeCount(node string) int {
	return d.Nodes[node].Live()
}

// LiveCount returns the cluster-wide live instance count.
func (d ServiceDescriptor) LiveCount() int {
	total := 0
	for _, c := range d.Nodes {
		total += c.Live()
	}

	return total
}

// Started returns the cluster-wide total of started instances.
func (d ServiceDescriptor) Started() uint64 {
	var total uint64
	for _, c := range d.Nodes {
		total += c.Started
	}

	return total
}

// Cancelled returns the cluster-wide total of cancelled instances.
func (d ServiceDescriptor) Cancelled() uint64 {
	var total uint64
	for _, c := range d.Nodes {
		total += c.Cancelled
	}

	return total
}

// Clone returns a deep copy of the descriptor.
func (d ServiceDescriptor) Clone() ServiceDescriptor {
	d.Nodes = maps.Clone(d.Nodes)

	return d
}
