package election

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/SavtechSolutions/ignite/types"
)

// ErrLeaseLost indicates the held lease could not be renewed.
var ErrLeaseLost = errors.New("coordinator lease was lost")

// NATSLease implements coordinator election using a NATS KV lease key.
//
// Uses atomic KV operations:
//   - Create (atomic): Acquire the role if the key doesn't exist
//   - Update (with revision): Renew the role while still holding the lease
//   - Delete: Release the role
//
// The lease key contains the node ID and is automatically deleted when
// the bucket TTL expires, allowing failover after a coordinator crash.
// A holder that has left the topology is evicted immediately instead of
// waiting for the TTL.
//
// All fields are protected by mu for thread-safe concurrent access.
type NATSLease struct {
	kv  jetstream.KeyValue
	key string

	mu       sync.Mutex
	holder   bool
	revision uint64
}

// Compile-time assertion that NATSLease implements ElectionAgent.
var _ types.ElectionAgent = (*NATSLease)(nil)

// NewNATSLease creates a lease-based election agent.
//
// The KV bucket should be configured with a short TTL (e.g., 10-30s)
// so the role fails over automatically when the coordinator crashes.
//
// Parameters:
//   - kv: JetStream KV bucket for election coordination
//   - key: Key name for the lease (e.g., "coordinator")
//
// Returns:
//   - *NATSLease: New election agent instance
//
// Example:
//
//	kv, _ := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
//	    Bucket:  "ignite-election",
//	    TTL:     30 * time.Second,
//	    Storage: jetstream.FileStorage,
//	})
//	agent := election.NewNATSLease(kv, "coordinator")
func NewNATSLease(kv jetstream.KeyValue, key string) *NATSLease {
	return &NATSLease{kv: kv, key: key}
}

// Campaign acquires, renews, or observes the coordinator lease.
//
// A node already holding the lease renews it; other nodes attempt an
// atomic Create and, on conflict, report the current holder. A holder
// that is no longer in the topology snapshot is evicted before the
// acquisition attempt.
func (e *NATSLease) Campaign(ctx context.Context, self string, top types.TopologySnapshot) (string, bool, error) {
	e.mu.Lock()
	holder, revision := e.holder, e.revision
	e.mu.Unlock()

	if holder {
		if err := e.renew(ctx, self, revision); err == nil {
			return self, true, nil
		}
		// Lease lost, fall through and compete again.
		e.clear()
	}

	for {
		revision, err := e.kv.Create(ctx, e.key, leaseValue(self))
		if err == nil {
			e.mu.Lock()
			e.holder = true
			e.revision = revision
			e.mu.Unlock()

			return self, true, nil
		}

		if !errors.Is(err, jetstream.ErrKeyExists) {
			return "", false, fmt.Errorf("failed to create lease key: %w", err)
		}

		entry, err := e.kv.Get(ctx, e.key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				// Holder expired between Create and Get; compete again.
				continue
			}

			return "", false, fmt.Errorf("failed to read lease key: %w", err)
		}

		leader := leaseHolder(entry.Value())
		if top.Contains(leader) {
			return leader, false, nil
		}

		// The holder left the cluster; evict its lease and compete again.
		if err := e.kv.Delete(ctx, e.key, jetstream.LastRevision(entry.Revision())); err != nil &&
			!errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", false, fmt.Errorf("failed to evict stale lease: %w", err)
		}
	}
}

// Resign releases the lease if this node holds it.
func (e *NATSLease) Resign(ctx context.Context) error {
	e.mu.Lock()
	holder := e.holder
	e.mu.Unlock()

	if !holder {
		return nil
	}

	if err := e.kv.Delete(ctx, e.key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete lease key: %w", err)
	}

	e.clear()

	return nil
}

// renew updates the lease with a revision check so a competing acquisition
// is detected.
func (e *NATSLease) renew(ctx context.Context, self string, revision uint64) error {
	newRevision, err := e.kv.Update(ctx, e.key, leaseValue(self), revision)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLeaseLost, err)
	}

	e.mu.Lock()
	e.revision = newRevision
	e.mu.Unlock()

	return nil
}

func (e *NATSLease) clear() {
	e.mu.Lock()
	e.holder = false
	e.revision = 0
	e.mu.Unlock()
}

// leaseValue encodes the holder and acquisition time, e.g. "node-01:1712".
func leaseValue(self string) []byte {
	return fmt.Appendf(nil, "%s:%d", self, time.Now().Unix())
}

// leaseHolder decodes the holder from a lease value.
func leaseHolder(value []byte) string {
	s := string(value)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[:i]
	}

	return s
}
