package ignite

import "github.com/SavtechSolutions/ignite/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the
// `types` subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `ignite`
// package, while still providing a convenient `ignite.Service`,
// `ignite.Logger`, etc. for users.
type (
	NodeDescriptor       = types.NodeDescriptor
	TopologySnapshot     = types.TopologySnapshot
	ServiceConfiguration = types.ServiceConfiguration
	NodeFilter           = types.NodeFilter
	Assignment           = types.Assignment
	ServiceDescriptor    = types.ServiceDescriptor
	InstanceCounts       = types.InstanceCounts
	Future               = types.Future
	DeploymentState      = types.DeploymentState
	InstanceState        = types.InstanceState
)

// Re-export interfaces from the types subpackage for convenience.
type (
	Service          = types.Service
	Handler          = types.Handler
	ServiceFactory   = types.ServiceFactory
	Bus              = types.Bus
	BusHandler       = types.BusHandler
	TopologyFeed     = types.TopologyFeed
	ElectionAgent    = types.ElectionAgent
	AffinityResolver = types.AffinityResolver
	MetricsCollector = types.MetricsCollector
	DeploymentStore  = types.DeploymentStore
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export deployment state constants.
const (
	DeploymentPending     = types.DeploymentPending
	DeploymentActive      = types.DeploymentActive
	DeploymentUndeploying = types.DeploymentUndeploying
	DeploymentGone        = types.DeploymentGone
)

// Re-export sentinel errors for errors.Is checks against grid operations.
var (
	ErrDuplicateName        = types.ErrDuplicateName
	ErrConfiguration        = types.ErrConfiguration
	ErrInstanceInit         = types.ErrInstanceInit
	ErrServiceUnavailable   = types.ErrServiceUnavailable
	ErrAffinityUnresolved   = types.ErrAffinityUnresolved
	ErrFactoryNotRegistered = types.ErrFactoryNotRegistered
	ErrInvalidConfig        = types.ErrInvalidConfig
	ErrBusRequired          = types.ErrBusRequired
	ErrTopologyFeedRequired = types.ErrTopologyFeedRequired
	ErrAlreadyStarted       = types.ErrAlreadyStarted
	ErrNotStarted           = types.ErrNotStarted
	ErrNotCoordinator       = types.ErrNotCoordinator
)
