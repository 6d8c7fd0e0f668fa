// Package election decides which node holds the cluster-wide coordinator
// role.
//
// Two agents are provided:
//
//   - Topology: deterministic election without extra infrastructure. The
//     eligible server node with the lowest ID holds the role. Every node
//     evaluates the same rule against the same snapshot, so the cluster
//     converges without message exchange. This is the default.
//
//   - NATSLease: lease-based election over a NATS JetStream KV bucket.
//     The role is held by whoever owns the lease key; the bucket TTL
//     bounds failover time after a leader crash. Use this when node IDs
//     are not stable enough for the topology rule, or when coordinator
//     stickiness across topology changes is preferred.
//
// The grid re-runs Campaign on every topology change and on a periodic
// tick, so a lapsed lease or a departed lowest-ID node hands the role
// over without operator action.
package election
