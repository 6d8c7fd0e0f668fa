// Package topology provides TopologyFeed implementations.
//
// Static is a manually updated node set with monotonically increasing
// versions, useful for embedding and tests. Presence derives the node set
// from NATS JetStream KV heartbeats: every node announces itself under a
// TTL'd key and renews it periodically, so a crashed node disappears from
// the topology once its key expires.
package topology
