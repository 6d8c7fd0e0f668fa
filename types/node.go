package types

import "slices"

// NodeDescriptor describes a single cluster node.
//
// Nodes are identified by a unique, stable ID. Client nodes participate in
// the cluster (they can deploy services and invoke proxies) but are excluded
// from service placement unless a configuration opts in.
type NodeDescriptor struct {
	// ID uniquely identifies the node within the cluster.
	ID string `json:"id"`

	// Client marks the node as a client node. Client nodes are skipped by
	// the default placement eligibility rules.
	Client bool `json:"client,omitempty"`

	// Labels holds arbitrary node attributes usable by custom node filters.
	Labels map[string]string `json:"labels,omitempty"`
}

// TopologySnapshot is an immutable, versioned view of the cluster node set.
//
// Versions increase monotonically; consumers must ignore snapshots whose
// version is not greater than the last one they observed. Nodes are kept
// sorted by ID so that independent computations over the same snapshot
// iterate nodes in the same order.
type TopologySnapshot struct {
	// Version is the monotonically increasing topology version.
	Version int64 `json:"version"`

	// Nodes is the set of cluster nodes, sorted by ID.
	Nodes []NodeDescriptor `json:"nodes"`
}

// NewTopologySnapshot builds a snapshot from the given nodes.
//
// The node slice is copied and sorted by ID; the input is not modified.
//
// Parameters:
//   - version: Monotonically increasing topology version
//   - nodes: Cluster nodes in any order
//
// Returns:
//   - TopologySnapshot: Snapshot with nodes sorted by ID
func NewTopologySnapshot(version int64, nodes []NodeDescriptor) TopologySnapshot {
	sorted := make([]NodeDescriptor, len(nodes))
	copy(sorted, nodes)
	slices.SortFunc(sorted, func(a, b NodeDescriptor) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}

		return 0
	})

	return TopologySnapshot{Version: version, Nodes: sorted}
}

// Node returns the descriptor for the given node ID.
//
// Returns:
//   - NodeDescriptor: The matching descriptor (zero value if absent)
//   - bool: true if the node is part of the snapshot
func (t TopologySnapshot) Node(id string) (NodeDescriptor, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return NodeDescriptor{}, false
}

// Contains reports whether the snapshot includes the given node ID.
func (t TopologySnapshot) Contains(id string) bool {
	_, ok := t.Node(id)

	return ok
}

// IDs returns the IDs of all nodes in the snapshot, sorted ascending.
func (t TopologySnapshot) IDs() []string {
	ids := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		ids[i] = n.ID
	}

	return ids
}

// ServerCount returns the number of non-client nodes in the snapshot.
func (t TopologySnapshot) ServerCount() int {
	cnt := 0
	for _, n := range t.Nodes {
		if !n.Client {
			cnt++
		}
	}

	return cnt
}
