package types

import "context"

// TopologyFeed produces a monotonically versioned sequence of cluster-node
// snapshots.
//
// Implementations can be backed by various membership mechanisms:
//   - Static: manually updated node set (embedding, tests)
//   - Presence: NATS JetStream KV heartbeats with TTL-based failure detection
//   - Custom: any external membership or discovery service
//
// Consumers must treat snapshots as immutable and ignore any snapshot whose
// version is not greater than the last one observed.
type TopologyFeed interface {
	// Snapshot returns the current topology snapshot.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - TopologySnapshot: Current node set and version
	//   - error: Feed error (nil on success)
	Snapshot(ctx context.Context) (TopologySnapshot, error)

	// Watch returns a channel delivering topology snapshots as the node set
	// changes. Deliveries may be coalesced: a slow consumer observes the
	// latest snapshot, not every intermediate one. The channel is closed
	// when ctx is cancelled.
	//
	// Parameters:
	//   - ctx: Context bounding the watch lifetime
	//
	// Returns:
	//   - <-chan TopologySnapshot: Snapshot deliveries
	//   - error: Watch setup error (nil on success)
	Watch(ctx context.Context) (<-chan TopologySnapshot, error)
}
