package topology

import (
	"context"
	"sync"

	"github.com/SavtechSolutions/ignite/types"
)

// Static implements a topology feed over a manually maintained node set.
//
// Every mutation bumps the version and notifies watchers. Watch channels
// carry a buffer of one and are coalesced: a slow consumer observes the
// latest snapshot rather than every intermediate one, matching the feed
// contract.
type Static struct {
	mu       sync.Mutex
	cur      types.TopologySnapshot
	watchers map[chan types.TopologySnapshot]struct{}
}

var _ types.TopologyFeed = (*Static)(nil)

// NewStatic creates a static feed seeded with the given nodes at version 1.
//
// Parameters:
//   - nodes: Initial cluster nodes (may be empty)
//
// Returns:
//   - *Static: Initialized feed
//
// Example:
//
//	feed := topology.NewStatic(
//	    types.NodeDescriptor{ID: "node-01"},
//	    types.NodeDescriptor{ID: "node-02"},
//	)
func NewStatic(nodes ...types.NodeDescriptor) *Static {
	return &Static{
		cur:      types.NewTopologySnapshot(1, nodes),
		watchers: make(map[chan types.TopologySnapshot]struct{}),
	}
}

// Snapshot returns the current topology snapshot.
func (s *Static) Snapshot(_ context.Context) (types.TopologySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cur, nil
}

// Watch returns a channel delivering snapshots as the node set changes.
// The channel is closed when ctx is cancelled.
func (s *Static) Watch(ctx context.Context) (<-chan types.TopologySnapshot, error) {
	ch := make(chan types.TopologySnapshot, 1)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()

		close(ch)
	}()

	return ch, nil
}

// SetNodes replaces the node set, bumps the version, and notifies watchers.
//
// Parameters:
//   - nodes: New complete node set
func (s *Static) SetNodes(nodes ...types.NodeDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = types.NewTopologySnapshot(s.cur.Version+1, nodes)
	s.notifyLocked()
}

// AddNodes adds nodes to the set. Nodes with already-present IDs are
// replaced.
func (s *Static) AddNodes(nodes ...types.NodeDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]types.NodeDescriptor, len(s.cur.Nodes)+len(nodes))
	for _, n := range s.cur.Nodes {
		merged[n.ID] = n
	}
	for _, n := range nodes {
		merged[n.ID] = n
	}

	next := make([]types.NodeDescriptor, 0, len(merged))
	for _, n := range merged {
		next = append(next, n)
	}

	s.cur = types.NewTopologySnapshot(s.cur.Version+1, next)
	s.notifyLocked()
}

// RemoveNodes removes the nodes with the given IDs from the set. Unknown
// IDs are ignored.
func (s *Static) RemoveNodes(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	next := make([]types.NodeDescriptor, 0, len(s.cur.Nodes))
	for _, n := range s.cur.Nodes {
		if _, gone := drop[n.ID]; !gone {
			next = append(next, n)
		}
	}

	s.cur = types.NewTopologySnapshot(s.cur.Version+1, next)
	s.notifyLocked()
}

// notifyLocked pushes the current snapshot to every watcher, replacing any
// undelivered older snapshot. Callers must hold s.mu.
func (s *Static) notifyLocked() {
	for ch := range s.watchers {
		select {
		case ch <- s.cur:
		default:
			// Drain the stale snapshot and deliver the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.cur:
			default:
			}
		}
	}
}
