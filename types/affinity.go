package types

import "context"

// AffinityResolver maps a cache name and key to the node that owns the key
// at a given topology snapshot.
//
// The assignment engine consults the resolver for affinity-pinned
// deployments; the resulting owner is the only eligible node. Resolution
// must be deterministic for a given (cacheName, key, snapshot) triple so
// that independent recomputations converge without coordination.
//
// Implementations:
//   - affinity.Ring: consistent-hash ring over the snapshot's server nodes
//   - affinity.Static: explicit key-to-node table (tests, external resolvers)
type AffinityResolver interface {
	// Owner returns the ID of the node owning the given key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - cacheName: Cache the key belongs to
	//   - key: Affinity key
	//   - top: Topology snapshot to resolve against
	//
	// Returns:
	//   - string: Owning node ID
	//   - error: ErrAffinityUnresolved when the key has no owner yet
	Owner(ctx context.Context, cacheName, key string, top TopologySnapshot) (string, error)
}
