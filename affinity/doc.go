// Package affinity provides AffinityResolver implementations mapping cache
// keys to their owning cluster nodes.
//
// Ring is the default resolver: a bounded-load consistent-hash ring built
// over the snapshot's server nodes, so key ownership is stable under
// topology churn and only relocates when the ring membership forces it.
// Static is an explicit key-to-node table for tests and for clusters whose
// key ownership is driven by an external partitioning service.
package affinity
