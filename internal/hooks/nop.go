package hooks

import (
	"context"

	"github.com/SavtechSolutions/ignite/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks provides the hook callbacks.
var (
	_ func(context.Context, types.ServiceDescriptor) error = (*NopHooks)(nil).OnDeploymentChanged
	_ func(context.Context, bool) error                    = (*NopHooks)(nil).OnCoordinatorChanged
	_ func(context.Context, error) error                   = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnDeploymentChanged:  h.OnDeploymentChanged,
		OnCoordinatorChanged: h.OnCoordinatorChanged,
		OnError:              h.OnError,
	}
}

// OnDeploymentChanged is a no-op implementation.
func (h *NopHooks) OnDeploymentChanged(_ context.Context, _ types.ServiceDescriptor) error {
	return nil
}

// OnCoordinatorChanged is a no-op implementation.
func (h *NopHooks) OnCoordinatorChanged(_ context.Context, _ bool) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
