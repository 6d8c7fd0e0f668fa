package ignite

import (
	"fmt"
	"time"
)

// Default timing values applied by Config.SetDefaults.
const (
	DefaultUndeployTimeout      = 10 * time.Second
	DefaultProxyRetryInterval   = 50 * time.Millisecond
	DefaultProxyWaitTimeout     = 5 * time.Second
	DefaultDeployForwardTimeout = 10 * time.Second
)

// Config holds the per-node grid configuration.
type Config struct {
	// NodeID uniquely identifies this node in the cluster. Node IDs order
	// lexicographically; with the default election agent the lowest server
	// node ID holds the coordinator role.
	NodeID string `yaml:"nodeId"`

	// Client marks this node as a client: it uses the grid and may act as
	// the deployment entry point, but hosts no service instances unless a
	// deployment opts clients in.
	Client bool `yaml:"client"`

	// Labels carries arbitrary node metadata for custom placement filters.
	Labels map[string]string `yaml:"labels"`

	// UndeployTimeout bounds the wait for nodes to acknowledge instance
	// cancellation during undeploy.
	//
	// Default: 10 seconds
	UndeployTimeout time.Duration `yaml:"undeployTimeout"`

	// ProxyRetryInterval is the delay between service proxy resolution
	// attempts while no live instance exists yet.
	//
	// Default: 50 milliseconds
	ProxyRetryInterval time.Duration `yaml:"proxyRetryInterval"`

	// ProxyWaitTimeout is the total time a proxied call waits for a live
	// instance before failing with ErrServiceUnavailable.
	//
	// Default: 5 seconds
	ProxyWaitTimeout time.Duration `yaml:"proxyWaitTimeout"`

	// DeployForwardTimeout bounds deploy and undeploy requests forwarded
	// from non-coordinator nodes to the coordinator.
	//
	// Default: 10 seconds
	DeployForwardTimeout time.Duration `yaml:"deployForwardTimeout"`
}

// SetDefaults fills zero timing fields with their default values.
func (c *Config) SetDefaults() {
	if c.UndeployTimeout <= 0 {
		c.UndeployTimeout = DefaultUndeployTimeout
	}
	if c.ProxyRetryInterval <= 0 {
		c.ProxyRetryInterval = DefaultProxyRetryInterval
	}
	if c.ProxyWaitTimeout <= 0 {
		c.ProxyWaitTimeout = DefaultProxyWaitTimeout
	}
	if c.DeployForwardTimeout <= 0 {
		c.DeployForwardTimeout = DefaultDeployForwardTimeout
	}
}

// Validate checks the configuration.
//
// Returns:
//   - error: ErrInvalidConfig (wrapped with detail) on invalid input
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("%w: nodeId is required", ErrInvalidConfig)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// This is called after Validate() in New() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (c *Config) ValidateWithWarnings(logger Logger) {
	// A proxy retry interval at or above the wait budget means a call gets
	// a single resolution attempt.
	if c.ProxyRetryInterval >= c.ProxyWaitTimeout {
		logger.Warn(
			"ProxyRetryInterval is not below ProxyWaitTimeout, proxy calls will not retry",
			"proxyRetryInterval", c.ProxyRetryInterval,
			"proxyWaitTimeout", c.ProxyWaitTimeout,
		)
	}

	if c.UndeployTimeout < time.Second {
		logger.Warn(
			"UndeployTimeout is very short, cancellation acknowledgments may be cut off",
			"undeployTimeout", c.UndeployTimeout,
			"recommended", "1s or higher",
		)
	}
}
