package affinity

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/buraksezer/consistent"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"

	"github.com/SavtechSolutions/ignite/types"
)

// Ring resolves affinity keys with a bounded-load consistent-hash ring over
// the snapshot's server nodes.
//
// Ownership is a pure function of (cacheName, key, server node set): every
// node resolving the same key against the same snapshot arrives at the same
// owner without coordination, and ownership only moves when the node set
// changes. Client nodes never own keys.
type Ring struct {
	partitionCount    int
	replicationFactor int
	load              float64

	// The ring for the last observed snapshot version is cached; topology
	// versions are monotonic, so a version match means the same node set.
	mu         sync.Mutex
	cachedVer  int64
	cachedRing *consistent.Consistent
}

var _ types.AffinityResolver = (*Ring)(nil)

// ringMember adapts a node ID to the consistent.Member interface.
type ringMember string

func (m ringMember) String() string { return string(m) }

// ringHasher hashes ring positions with xxhash.
type ringHasher struct{}

func (ringHasher) Sum64(data []byte) uint64 { return xxhash.Sum64(data) }

// NewRing creates a consistent-hash affinity resolver with default ring
// parameters.
//
// Returns:
//   - *Ring: Initialized resolver
//
// Example:
//
//	resolver := affinity.NewRing()
//	owner, err := resolver.Owner(ctx, "orders", "user-42", snapshot)
func NewRing() *Ring {
	return &Ring{
		partitionCount:    271,
		replicationFactor: 20,
		load:              1.25,
	}
}

// Owner returns the server node owning the given cache key.
//
// Parameters:
//   - ctx: Unused; resolution is purely computational
//   - cacheName: Cache the key belongs to
//   - key: Affinity key
//   - top: Topology snapshot to resolve against
//
// Returns:
//   - string: Owning node ID
//   - error: types.ErrAffinityUnresolved when the snapshot has no server nodes
func (r *Ring) Owner(_ context.Context, cacheName, key string, top types.TopologySnapshot) (string, error) {
	ring := r.ringFor(top)
	if ring == nil {
		return "", types.ErrAffinityUnresolved
	}

	// Pre-hash (cache, key) into a fixed-width ring key so that keys from
	// different caches never collide positionally.
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxh3.HashString(cacheName+"\x00"+key))

	member := ring.LocateKey(buf[:])
	if member == nil {
		return "", types.ErrAffinityUnresolved
	}

	return member.String(), nil
}

// ringFor returns the ring for the snapshot, rebuilding it only when the
// snapshot version advances.
func (r *Ring) ringFor(top types.TopologySnapshot) *consistent.Consistent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedRing != nil && r.cachedVer == top.Version {
		return r.cachedRing
	}

	members := make([]consistent.Member, 0, len(top.Nodes))
	for _, n := range top.Nodes {
		if n.Client {
			continue
		}
		members = append(members, ringMember(n.ID))
	}
	if len(members) == 0 {
		r.cachedVer = top.Version
		r.cachedRing = nil

		return nil
	}

	cfg := consistent.Config{
		PartitionCount:    r.partitionCount,
		ReplicationFactor: r.replicationFactor,
		Load:              r.load,
		Hasher:            ringHasher{},
	}

	r.cachedVer = top.Version
	r.cachedRing = consistent.New(members, cfg)

	return r.cachedRing
}
