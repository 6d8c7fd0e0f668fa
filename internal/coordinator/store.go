package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/SavtechSolutions/ignite/internal/wire"
	"github.com/SavtechSolutions/ignite/types"
)

// Store is the deployment persistence contract the coordinator rebuilds
// its registry from. See types.DeploymentStore.
type Store = types.DeploymentStore

const storePrefix = "deployment"

// KVStore persists deployment configurations in a NATS JetStream KV
// bucket under "deployment.<name>" keys.
type KVStore struct {
	kv jetstream.KeyValue
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a deployment store over a KV bucket. The bucket
// should use file storage and no TTL; deployments outlive coordinators.
func NewKVStore(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

// Save persists one configuration.
func (s *KVStore) Save(ctx context.Context, cfg types.ServiceConfiguration) error {
	data, err := wire.Encode(cfg)
	if err != nil {
		return err
	}

	if _, err := s.kv.Put(ctx, storePrefix+"."+cfg.Name, data); err != nil {
		return fmt.Errorf("failed to persist deployment %s: %w", cfg.Name, err)
	}

	return nil
}

// Delete removes a persisted configuration.
func (s *KVStore) Delete(ctx context.Context, name string) error {
	err := s.kv.Purge(ctx, storePrefix+"."+name)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete deployment %s: %w", name, err)
	}

	return nil
}

// List returns every persisted configuration.
func (s *KVStore) List(ctx context.Context) ([]types.ServiceConfiguration, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	var out []types.ServiceConfiguration
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, storePrefix+".") {
			continue
		}

		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("failed to read deployment %s: %w", key, err)
		}

		var cfg types.ServiceConfiguration
		if err := wire.Decode(entry.Value(), &cfg); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}

	return out, nil
}
