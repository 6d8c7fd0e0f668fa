package types

import "maps"

// Assignment is the target per-node instance count for one deployment,
// tagged with the topology version it was computed from.
//
// Assignments are recomputed wholesale on every trigger rather than patched
// incrementally; convergence therefore never depends on the history of
// partial failures. Nodes absent from Counts have a target of zero.
type Assignment struct {
	// Name is the deployment the assignment belongs to.
	Name string `json:"name"`

	// TopologyVersion is the version of the snapshot the assignment was
	// computed against.
	TopologyVersion int64 `json:"topologyVersion"`

	// Counts maps node ID to the desired instance count on that node.
	// Zero-count entries are omitted.
	Counts map[string]int `json:"counts"`
}

// Count returns the target instance count for the given node.
func (a Assignment) Count(node string) int {
	return a.Counts[node]
}

// Total returns the cluster-wide target instance count.
func (a Assignment) Total() int {
	total := 0
	for _, c := range a.Counts {
		total += c
	}

	return total
}

// Equal reports whether two assignments target the same per-node counts.
// The topology version is ignored; recomputing against a newer snapshot may
// legitimately yield an identical placement.
func (a Assignment) Equal(b Assignment) bool {
	return maps.Equal(a.Counts, b.Counts)
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	return Assignment{
		Name:            a.Name,
		TopologyVersion: a.TopologyVersion,
		Counts:          maps.Clone(a.Counts),
	}
}
