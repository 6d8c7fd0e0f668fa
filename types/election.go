package types

import "context"

// ElectionAgent decides which node holds the cluster-wide coordinator role.
//
// Exactly one node at a time should act as the deployment coordinator: it
// computes assignments, diffs them against the last published state, and
// fans out start/cancel commands. The coordinator algorithm itself is
// leader-agnostic; the agent only answers "who holds the role right now".
//
// Implementations:
//   - election.Topology: lowest server node ID in the current snapshot
//     (deterministic, no extra infrastructure)
//   - election.NATSLease: lease key in a NATS JetStream KV bucket with
//     TTL-based failover
//
// The grid re-evaluates the role on every topology change.
type ElectionAgent interface {
	// Campaign evaluates the coordinator role for the given snapshot.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - self: This node's ID
	//   - top: Current topology snapshot
	//
	// Returns:
	//   - string: ID of the node currently holding the role ("" if vacant)
	//   - bool: true if this node holds the role
	//   - error: Election error (nil on success)
	Campaign(ctx context.Context, self string, top TopologySnapshot) (string, bool, error)

	// Resign releases the role if this node holds it. Called during
	// graceful shutdown to allow fast failover.
	Resign(ctx context.Context) error
}
