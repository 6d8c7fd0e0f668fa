package types

import "errors"

// Sentinel errors for the Ignite service grid.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). All components should use these sentinel errors for known
// error conditions and wrap external errors with context using
// fmt.Errorf("%s: %w", msg, err).

// Deployment errors - surfaced to callers of the deployment API.
var (
	// ErrDuplicateName is returned when a deployment name is reused with a
	// conflicting configuration. The existing deployment is unaffected.
	ErrDuplicateName = errors.New("service name already deployed with a different configuration")

	// ErrConfiguration is returned when a service configuration combines
	// limits or filters in an invalid way. The deployment is rejected
	// before any fan-out.
	ErrConfiguration = errors.New("invalid service configuration")

	// ErrInstanceInit indicates a service instance failed to initialize.
	// Sibling instances and the deployment as a whole are unaffected; the
	// node's live count stays below target until a later recompute.
	ErrInstanceInit = errors.New("service instance failed to initialize")

	// ErrServiceUnavailable is returned by proxy resolution when no node
	// currently reports a live instance of the requested service.
	ErrServiceUnavailable = errors.New("no live service instance available")

	// ErrAffinityUnresolved indicates the affinity key is not yet mapped to
	// an owning node. The deployment stays pending; this is not fatal.
	ErrAffinityUnresolved = errors.New("affinity key not resolved to a node")

	// ErrFactoryNotRegistered is returned when a node receives a target for
	// a service type it has no registered factory for.
	ErrFactoryNotRegistered = errors.New("no service factory registered for type")
)

// Grid lifecycle errors - public API errors returned by the Grid.
var (
	// ErrInvalidConfig is returned when the grid configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBusRequired is returned when the message bus is nil.
	ErrBusRequired = errors.New("message bus is required")

	// ErrTopologyFeedRequired is returned when the topology feed is nil.
	ErrTopologyFeedRequired = errors.New("topology feed is required")

	// ErrAlreadyStarted is returned when Start is called on a running grid.
	ErrAlreadyStarted = errors.New("grid already started")

	// ErrNotStarted is returned when operations require a started grid.
	ErrNotStarted = errors.New("grid not started")

	// ErrNotCoordinator is returned when a coordinator-only operation is
	// invoked on a node that does not hold the coordinator role.
	ErrNotCoordinator = errors.New("node does not hold the coordinator role")
)
