package affinity

import (
	"context"
	"sync"

	"github.com/SavtechSolutions/ignite/types"
)

// Static resolves affinity keys from an explicit key-to-node table.
//
// Keys without a pinned owner resolve to types.ErrAffinityUnresolved, and a
// pinned owner that has left the topology is reported as unresolved rather
// than stale. Useful for tests and for clusters whose key ownership is
// driven by an external partitioning service.
type Static struct {
	mu     sync.RWMutex
	owners map[string]string
}

var _ types.AffinityResolver = (*Static)(nil)

// NewStatic creates an empty static resolver.
func NewStatic() *Static {
	return &Static{owners: make(map[string]string)}
}

// Pin maps the given cache key to an owning node.
//
// Parameters:
//   - cacheName: Cache the key belongs to
//   - key: Affinity key
//   - node: Owning node ID
func (s *Static) Pin(cacheName, key, node string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners[cacheName+"\x00"+key] = node
}

// Unpin removes the ownership mapping for the given cache key.
func (s *Static) Unpin(cacheName, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.owners, cacheName+"\x00"+key)
}

// Owner returns the pinned node for the given cache key.
func (s *Static) Owner(_ context.Context, cacheName, key string, top types.TopologySnapshot) (string, error) {
	s.mu.RLock()
	node, ok := s.owners[cacheName+"\x00"+key]
	s.mu.RUnlock()

	if !ok || !top.Contains(node) {
		return "", types.ErrAffinityUnresolved
	}

	return node, nil
}
