package types

import "context"

// Hooks defines callbacks for grid lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the coordinator or the instance manager. Hooks receive
// the grid's lifecycle context, which is cancelled during shutdown.
//
// Hook errors are logged but never fail grid operations. Implementations
// should complete quickly, respect context cancellation, and be idempotent.
type Hooks struct {
	// OnDeploymentChanged is called when a deployment's observed per-node
	// counts change (instance started, cancelled, or node dropped).
	OnDeploymentChanged func(ctx context.Context, desc ServiceDescriptor) error

	// OnCoordinatorChanged is called when this node gains or loses the
	// coordinator role.
	OnCoordinatorChanged func(ctx context.Context, coordinator bool) error

	// OnError is called when a recoverable error occurs.
	OnError func(ctx context.Context, err error) error
}
