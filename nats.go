package ignite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Bucket creation retry bounds. Every node runs the same Ensure call at
// startup, so lost creation races and transient JetStream errors are
// expected; a few linearly spaced attempts absorb them.
const (
	ensureBucketAttempts = 3
	ensureBucketBackoff  = 25 * time.Millisecond
)

// EnsurePresenceBucket creates or opens the key-value bucket backing a
// presence topology feed. The TTL is the failure detection window: a node
// that stops renewing its heartbeat disappears from the topology once its
// entry expires. Safe to call concurrently from every node.
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - js: JetStream context
//   - bucket: Bucket name shared by all cluster nodes
//   - ttl: Heartbeat expiry; renew at a third of this or faster
//
// Returns:
//   - jetstream.KeyValue: Bucket for topology.NewPresence
//   - error: Creation or open failure after retries
func EnsurePresenceBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	return ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
}

// EnsureDeploymentBucket creates or opens the key-value bucket backing a
// persistent deployment store. Entries carry no TTL; deployments survive
// until undeployed. Safe to call concurrently from every node.
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - js: JetStream context
//   - bucket: Bucket name shared by all cluster nodes
//
// Returns:
//   - jetstream.KeyValue: Bucket for NewKVDeploymentStore
//   - error: Creation or open failure after retries
func EnsureDeploymentBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	return ensureBucket(ctx, js, jetstream.KeyValueConfig{Bucket: bucket})
}

// EnsureLeaseBucket creates or opens the key-value bucket backing a lease
// election. The TTL expires a crashed holder's lease so a survivor can
// take over. Safe to call concurrently from every node.
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - js: JetStream context
//   - bucket: Bucket name shared by all cluster nodes
//   - ttl: Lease expiry; holders renew on every topology change
//
// Returns:
//   - jetstream.KeyValue: Bucket for NewLeaseElection
//   - error: Creation or open failure after retries
func EnsureLeaseBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	return ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
}

// ensureBucket creates the bucket, falling back to opening it when another
// node created it first.
func ensureBucket(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	var lastErr error

	for attempt := 0; attempt < ensureBucketAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * ensureBucketBackoff):
			}
		}

		kv, err := js.CreateKeyValue(ctx, cfg)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			// Another node won the creation race.
			if kv, err = js.KeyValue(ctx, cfg.Bucket); err == nil {
				return kv, nil
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("bucket %s not ensured: %w", cfg.Bucket, lastErr)
		}
	}

	return nil, fmt.Errorf("bucket %s not ensured after %d attempts: %w", cfg.Bucket, ensureBucketAttempts, lastErr)
}
