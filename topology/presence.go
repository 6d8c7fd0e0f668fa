package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/SavtechSolutions/ignite/types"
)

// Presence errors.
var (
	ErrPresenceAlreadyStarted = errors.New("presence feed already started")
	ErrPresenceNotStarted     = errors.New("presence feed not started")
)

// Presence derives the cluster topology from NATS JetStream KV heartbeats.
//
// Each node announces its descriptor under "node.<id>" in a KV bucket
// configured with a TTL and renews the entry periodically. The feed watches
// the bucket: a put adds or refreshes a node, an expiry or delete removes
// it. A crashed node therefore leaves the topology once its key expires,
// without any explicit leave message.
//
// The bucket TTL should be 3-5x the renew interval so a couple of missed
// renewals do not flap the topology.
type Presence struct {
	kv       jetstream.KeyValue
	self     types.NodeDescriptor
	interval time.Duration
	logger   types.Logger

	mu       sync.Mutex
	nodes    map[string]types.NodeDescriptor
	version  int64
	watchers map[chan types.TopologySnapshot]struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

var _ types.TopologyFeed = (*Presence)(nil)

const presencePrefix = "node"

// NewPresence creates a presence feed for the given node.
//
// Parameters:
//   - kv: JetStream KV bucket for node announcements (TTL configured by caller)
//   - self: This node's descriptor
//   - interval: Announcement renewal interval
//   - logger: Logger for presence events
//
// Returns:
//   - *Presence: Initialized feed (call Start to begin announcing/watching)
func NewPresence(kv jetstream.KeyValue, self types.NodeDescriptor, interval time.Duration, logger types.Logger) *Presence {
	return &Presence{
		kv:       kv,
		self:     self,
		interval: interval,
		logger:   logger,
		nodes:    make(map[string]types.NodeDescriptor),
		watchers: make(map[chan types.TopologySnapshot]struct{}),
	}
}

// Start announces this node and begins watching the bucket.
//
// Parameters:
//   - ctx: Context for the initial announcement and watcher setup
//
// Returns:
//   - error: Announcement or watcher setup failure
func (p *Presence) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()

		return ErrPresenceAlreadyStarted
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	if err := p.announce(ctx); err != nil {
		return fmt.Errorf("failed to announce node: %w", err)
	}

	watcher, err := p.kv.Watch(p.ctx, presencePrefix+".*")
	if err != nil {
		return fmt.Errorf("failed to watch presence keys: %w", err)
	}

	p.wg.Add(2)
	go p.renewLoop()
	go p.watchLoop(watcher)

	return nil
}

// Stop withdraws this node's announcement and stops the feed.
func (p *Presence) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()

		return ErrPresenceNotStarted
	}
	p.mu.Unlock()

	// Delete eagerly so peers see the departure before the TTL expires.
	if err := p.kv.Delete(ctx, p.key(p.self.ID)); err != nil {
		p.logger.Warn("failed to withdraw presence key", "node", p.self.ID, "error", err)
	}

	p.cancel()
	p.wg.Wait()

	return nil
}

// Snapshot returns the current topology snapshot.
func (p *Presence) Snapshot(_ context.Context) (types.TopologySnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshotLocked(), nil
}

// Watch returns a channel delivering snapshots as nodes come and go.
// The channel is closed when ctx is cancelled.
func (p *Presence) Watch(ctx context.Context) (<-chan types.TopologySnapshot, error) {
	ch := make(chan types.TopologySnapshot, 1)

	p.mu.Lock()
	p.watchers[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()

		p.mu.Lock()
		delete(p.watchers, ch)
		p.mu.Unlock()

		close(ch)
	}()

	return ch, nil
}

func (p *Presence) key(nodeID string) string {
	return presencePrefix + "." + nodeID
}

func (p *Presence) announce(ctx context.Context) error {
	data, err := json.Marshal(p.self)
	if err != nil {
		return fmt.Errorf("failed to marshal node descriptor: %w", err)
	}

	if _, err := p.kv.Put(ctx, p.key(p.self.ID), data); err != nil {
		return fmt.Errorf("failed to put presence key: %w", err)
	}

	return nil
}

// renewLoop refreshes this node's announcement so the TTL never expires
// while the node is alive.
func (p *Presence) renewLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.announce(p.ctx); err != nil && p.ctx.Err() == nil {
				p.logger.Warn("failed to renew presence", "node", p.self.ID, "error", err)
			}
		}
	}
}

// watchLoop applies bucket updates to the node set. The watcher replays
// current entries first, then delivers a nil marker, then live updates.
func (p *Presence) watchLoop(watcher jetstream.KeyWatcher) {
	defer p.wg.Done()
	defer func() {
		if err := watcher.Stop(); err != nil && p.ctx.Err() == nil {
			p.logger.Warn("failed to stop presence watcher", "error", err)
		}
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case entry := <-watcher.Updates():
			if entry == nil {
				continue
			}
			p.apply(entry)
		}
	}
}

func (p *Presence) apply(entry jetstream.KeyValueEntry) {
	nodeID := strings.TrimPrefix(entry.Key(), presencePrefix+".")

	p.mu.Lock()
	defer p.mu.Unlock()

	switch entry.Operation() {
	case jetstream.KeyValuePut:
		var desc types.NodeDescriptor
		if err := json.Unmarshal(entry.Value(), &desc); err != nil {
			p.logger.Warn("failed to unmarshal node descriptor", "key", entry.Key(), "error", err)

			return
		}
		// Renewals carry the same descriptor; only membership changes
		// bump the version and notify.
		prev, known := p.nodes[nodeID]
		p.nodes[nodeID] = desc
		if known && sameNode(prev, desc) {
			return
		}
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		if _, ok := p.nodes[nodeID]; !ok {
			return
		}
		delete(p.nodes, nodeID)
	default:
		return
	}

	p.version++
	p.logger.Debug("topology changed", "version", p.version, "nodes", len(p.nodes))
	p.notifyLocked()
}

// sameNode reports whether two announcements describe the same membership
// state, including labels.
func sameNode(a, b types.NodeDescriptor) bool {
	if a.ID != b.ID || a.Client != b.Client || len(a.Labels) != len(b.Labels) {
		return false
	}
	for k, v := range a.Labels {
		if b.Labels[k] != v {
			return false
		}
	}

	return true
}

func (p *Presence) snapshotLocked() types.TopologySnapshot {
	nodes := make([]types.NodeDescriptor, 0, len(p.nodes))
	for _, n := range p.nodes {
		nodes = append(nodes, n)
	}

	return types.NewTopologySnapshot(p.version, nodes)
}

func (p *Presence) notifyLocked() {
	snap := p.snapshotLocked()
	for ch := range p.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
