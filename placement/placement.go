package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/SavtechSolutions/ignite/types"
)

// Compute calculates the target per-node instance counts for one deployment.
//
// The algorithm:
//  1. Filter the snapshot down to eligible nodes (configuration filter
//     rules; server nodes only by default).
//  2. For affinity-pinned configurations, collapse the eligible set to the
//     single node the resolver reports as the key's owner. An unresolved
//     key yields an empty assignment, not an error: the deployment simply
//     stays pending until ownership appears.
//  3. Distribute the requested total across eligible nodes round-robin in
//     ascending node ID order, respecting the per-node cap. A zero total
//     fills every eligible node to the per-node cap (node-singleton
//     semantics when the cap is one).
//
// Under-provisioning is legal: when the eligible set cannot absorb the full
// total the assignment just carries fewer instances.
//
// Parameters:
//   - ctx: Context passed through to the affinity resolver
//   - cfg: Validated service configuration
//   - top: Topology snapshot to place against
//   - resolver: Affinity resolver (may be nil for non-affinity configs)
//
// Returns:
//   - types.Assignment: Target counts tagged with the snapshot version
//   - error: Configuration validation error or resolver failure
func Compute(ctx context.Context, cfg types.ServiceConfiguration, top types.TopologySnapshot, resolver types.AffinityResolver) (types.Assignment, error) {
	if err := cfg.Validate(); err != nil {
		return types.Assignment{}, err
	}

	out := types.Assignment{
		Name:            cfg.Name,
		TopologyVersion: top.Version,
		Counts:          make(map[string]int),
	}

	if cfg.HasAffinity() {
		return computeAffinity(ctx, cfg, top, resolver, out)
	}

	// Nodes arrive sorted by ID from the snapshot; keep that order for the
	// round-robin so ties always break toward the lowest ID.
	eligible := make([]string, 0, len(top.Nodes))
	for _, n := range top.Nodes {
		if cfg.Eligible(n) {
			eligible = append(eligible, n.ID)
		}
	}
	if len(eligible) == 0 {
		return out, nil
	}

	perNodeCap := cfg.MaxPerNodeCount
	if cfg.TotalCount == 0 {
		// Unbounded total: fill every eligible node to its cap.
		for _, id := range eligible {
			out.Counts[id] = perNodeCap
		}

		return out, nil
	}

	remaining := cfg.TotalCount
	for remaining > 0 {
		placed := false
		for _, id := range eligible {
			if remaining == 0 {
				break
			}
			if perNodeCap > 0 && out.Counts[id] >= perNodeCap {
				continue
			}
			out.Counts[id]++
			remaining--
			placed = true
		}
		// Every node at cap: the assignment is under-provisioned.
		if !placed {
			break
		}
	}

	return out, nil
}

// computeAffinity collapses the eligible set to the affinity key's owner.
func computeAffinity(ctx context.Context, cfg types.ServiceConfiguration, top types.TopologySnapshot, resolver types.AffinityResolver, out types.Assignment) (types.Assignment, error) {
	if resolver == nil {
		return types.Assignment{}, fmt.Errorf("%w: affinity deployment requires a resolver", types.ErrConfiguration)
	}

	owner, err := resolver.Owner(ctx, cfg.AffinityCacheName, cfg.AffinityKey, top)
	if err != nil {
		if errors.Is(err, types.ErrAffinityUnresolved) {
			return out, nil
		}

		return types.Assignment{}, fmt.Errorf("failed to resolve affinity owner: %w", err)
	}

	node, ok := top.Node(owner)
	if !ok || !cfg.Eligible(node) {
		return out, nil
	}

	out.Counts[owner] = 1

	return out, nil
}

// Diff computes the per-node delta between two assignments.
//
// A positive delta means "start that many more instances" on the node, a
// negative one "cancel that many". Nodes present in neither map are absent
// from the result; diffing identical assignments yields an empty map.
//
// Parameters:
//   - prev: Previously published assignment
//   - next: Newly computed assignment
//
// Returns:
//   - map[string]int: Node ID to signed instance-count delta (zeros omitted)
func Diff(prev, next types.Assignment) map[string]int {
	delta := make(map[string]int)
	for node, cnt := range next.Counts {
		if d := cnt - prev.Counts[node]; d != 0 {
			delta[node] = d
		}
	}
	for node, cnt := range prev.Counts {
		if _, ok := next.Counts[node]; !ok && cnt != 0 {
			delta[node] = -cnt
		}
	}

	return delta
}
