package types

import "context"

// DeploymentStore persists deployment configurations so a newly elected
// coordinator can rebuild the registry after a failover.
//
// Only the declarative part of a configuration survives persistence;
// factories are re-resolved from each node's local catalog and custom node
// filter functions cannot be restored.
type DeploymentStore interface {
	// Save persists one configuration, replacing any previous one with the
	// same name.
	Save(ctx context.Context, cfg ServiceConfiguration) error

	// Delete removes the configuration for a name. Unknown names are not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns every persisted configuration.
	List(ctx context.Context) ([]ServiceConfiguration, error)
}
