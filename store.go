package ignite

import (
	"github.com/nats-io/nats.go/jetstream"

	"github.com/SavtechSolutions/ignite/internal/coordinator"
)

// NewKVDeploymentStore creates a DeploymentStore backed by a JetStream
// key-value bucket. Deployment configurations survive coordinator failover:
// a newly elected coordinator restores the registry from the bucket and
// resumes managing the deployments it finds there.
//
// Parameters:
//   - kv: JetStream key-value bucket dedicated to deployment records
//
// Returns:
//   - DeploymentStore: Store suitable for WithDeploymentStore
func NewKVDeploymentStore(kv jetstream.KeyValue) DeploymentStore {
	return coordinator.NewKVStore(kv)
}
