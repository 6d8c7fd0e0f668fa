package ignite

import (
	"github.com/nats-io/nats.go/jetstream"

	"github.com/SavtechSolutions/ignite/internal/election"
)

// NewTopologyElection creates the default election agent: the lowest
// server node ID in each topology snapshot holds the coordinator role.
// It needs no external state and converges instantly, but a node with a
// lexicographically small ID flapping in and out of the cluster causes
// coordinator churn.
//
// Returns:
//   - ElectionAgent: Deterministic topology-ordered election
func NewTopologyElection() ElectionAgent {
	return election.NewTopology()
}

// NewLeaseElection creates an election agent backed by a JetStream
// key-value lease. The coordinator role sticks to its holder across
// topology changes until the holder leaves the cluster or resigns, which
// avoids churn when small-ID nodes flap.
//
// The bucket should carry a TTL so a crashed holder's lease expires;
// holders renew it on every campaign. A lease held by a node absent from
// the current snapshot is evicted eagerly.
//
// Parameters:
//   - kv: JetStream key-value bucket for the lease entry
//   - key: Lease key, shared by all contenders
//
// Returns:
//   - ElectionAgent: Lease-based sticky election
func NewLeaseElection(kv jetstream.KeyValue, key string) ElectionAgent {
	return election.NewNATSLease(kv, key)
}
