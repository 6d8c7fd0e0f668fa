package types

import "fmt"

// NodeFilter is a predicate over a node descriptor deciding placement
// eligibility. Filters are evaluated only by the deployment coordinator;
// they never cross the wire.
type NodeFilter func(NodeDescriptor) bool

// ServiceConfiguration declares how a named service should be deployed.
//
// The zero counts mean "unbounded": TotalCount = 0 places instances on every
// eligible node up to MaxPerNodeCount, and MaxPerNodeCount = 0 leaves the
// per-node count uncapped. At least one of the two must be positive unless
// an affinity pin is set.
//
// An affinity pin (AffinityCacheName + AffinityKey) restricts the deployment
// to the single node that owns the key, with an implicit total and per-node
// count of one. Affinity is mutually exclusive with a custom Filter.
type ServiceConfiguration struct {
	// Name uniquely identifies the deployment across the cluster.
	// Redeploying an existing name with a different configuration fails
	// with ErrDuplicateName.
	Name string `json:"name"`

	// Type selects the service factory registered on each node.
	// Defaults to Name when empty.
	Type string `json:"type,omitempty"`

	// TotalCount caps the cluster-wide instance count (0 = unbounded).
	TotalCount int `json:"totalCount,omitempty"`

	// MaxPerNodeCount caps the per-node instance count (0 = unbounded).
	MaxPerNodeCount int `json:"maxPerNodeCount,omitempty"`

	// IncludeClients makes client nodes eligible for placement. By default
	// only server nodes host instances.
	IncludeClients bool `json:"includeClients,omitempty"`

	// AffinityCacheName names the cache whose key ownership pins the
	// deployment. Must be set together with AffinityKey.
	AffinityCacheName string `json:"affinityCacheName,omitempty"`

	// AffinityKey is the key whose owning node hosts the single instance.
	AffinityKey string `json:"affinityKey,omitempty"`

	// Factory constructs service instances. It is registered into the
	// deploying node's local catalog under the configuration type; it does
	// not cross the wire, so remote nodes must register the same type
	// themselves.
	Factory ServiceFactory `json:"-"`

	// Filter is an optional custom eligibility predicate. When nil, the
	// default rule applies: all server nodes, plus client nodes when
	// IncludeClients is set.
	Filter NodeFilter `json:"-"`
}

// TypeName returns the factory type for this configuration (Type, or Name
// when Type is empty).
func (c ServiceConfiguration) TypeName() string {
	if c.Type != "" {
		return c.Type
	}

	return c.Name
}

// HasAffinity reports whether the configuration carries an affinity pin.
func (c ServiceConfiguration) HasAffinity() bool {
	return c.AffinityCacheName != "" || c.AffinityKey != ""
}

// Eligible reports whether the given node may host instances of this
// configuration. Affinity resolution is handled separately by the
// assignment engine; Eligible only applies the filter rules.
func (c ServiceConfiguration) Eligible(n NodeDescriptor) bool {
	if c.Filter != nil {
		return c.Filter(n)
	}
	if n.Client && !c.IncludeClients {
		return false
	}

	return true
}

// Validate checks the configuration for invalid limit combinations.
//
// Under-provisioning (fewer eligible nodes than TotalCount requires) is
// deliberately not an error; it simply yields fewer instances, observable
// through the service descriptor.
//
// Returns:
//   - error: ErrConfiguration (wrapped with detail) on invalid input
func (c ServiceConfiguration) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrConfiguration)
	}
	if c.TotalCount < 0 || c.MaxPerNodeCount < 0 {
		return fmt.Errorf("%w: instance counts must not be negative", ErrConfiguration)
	}

	if c.HasAffinity() {
		if c.AffinityCacheName == "" || c.AffinityKey == "" {
			return fmt.Errorf("%w: affinity cache name and key must be set together", ErrConfiguration)
		}
		if c.TotalCount > 1 || c.MaxPerNodeCount > 1 {
			return fmt.Errorf("%w: affinity deployments are single-instance", ErrConfiguration)
		}
		if c.Filter != nil {
			return fmt.Errorf("%w: affinity is mutually exclusive with a custom node filter", ErrConfiguration)
		}

		return nil
	}

	if c.TotalCount == 0 && c.MaxPerNodeCount == 0 {
		return fmt.Errorf("%w: at least one of totalCount and maxPerNodeCount must be positive", ErrConfiguration)
	}

	return nil
}

// Equivalent reports whether two configurations describe the same
// deployment. Only declarative fields participate; Factory and Filter are
// function values and cannot be compared, so redeploying the same name with
// a different factory but identical limits is treated as idempotent.
func (c ServiceConfiguration) Equivalent(o ServiceConfiguration) bool {
	return c.Name == o.Name &&
		c.TypeName() == o.TypeName() &&
		c.TotalCount == o.TotalCount &&
		c.MaxPerNodeCount == o.MaxPerNodeCount &&
		c.IncludeClients == o.IncludeClients &&
		c.AffinityCacheName == o.AffinityCacheName &&
		c.AffinityKey == o.AffinityKey
}
