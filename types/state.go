package types

// DeploymentState represents the lifecycle state of a named deployment as
// tracked by the deployment coordinator.
//
// States follow a defined progression:
//
//	Pending → Active → Undeploying → Gone
//
// A deployment stays Pending while it has no placed instances (for example
// an affinity pin whose key is not yet owned by any node) and becomes
// Active once start commands have been issued. Topology changes never move
// a deployment back to Pending.
type DeploymentState int

const (
	// DeploymentPending indicates the deployment is recorded but no start
	// commands have been issued yet.
	DeploymentPending DeploymentState = iota

	// DeploymentActive indicates start commands have been issued; the
	// deployment follows topology changes.
	DeploymentActive

	// DeploymentUndeploying indicates cancel-all commands have been issued
	// and acknowledgments are being collected.
	DeploymentUndeploying

	// DeploymentGone is the terminal state; the descriptor is dropped.
	DeploymentGone
)

// String returns the string representation of the deployment state.
func (s DeploymentState) String() string {
	switch s {
	case DeploymentPending:
		return "Pending"
	case DeploymentActive:
		return "Active"
	case DeploymentUndeploying:
		return "Undeploying"
	case DeploymentGone:
		return "Gone"
	default:
		return "Unknown"
	}
}

// InstanceState represents the lifecycle state of a single service instance
// on its owning node.
type InstanceState int

const (
	// InstanceCreated indicates the instance is constructed but not
	// initialized.
	InstanceCreated InstanceState = iota

	// InstanceInitialized indicates Init completed successfully.
	InstanceInitialized

	// InstanceExecuting indicates Execute is running.
	InstanceExecuting

	// InstanceCancelled is the terminal state; all resources are released.
	InstanceCancelled

	// InstanceFailed indicates Init returned an error. Failed instances
	// never count toward the node's live total.
	InstanceFailed
)

// String returns the string representation of the instance state.
func (s InstanceState) String() string {
	switch s {
	case InstanceCreated:
		return "Created"
	case InstanceInitialized:
		return "Initialized"
	case InstanceExecuting:
		return "Executing"
	case InstanceCancelled:
		return "Cancelled"
	case InstanceFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
