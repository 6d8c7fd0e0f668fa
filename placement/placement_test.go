package placement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SavtechSolutions/ignite/types"
)

func servers(ids ...string) []types.NodeDescriptor {
	nodes := make([]types.NodeDescriptor, len(ids))
	for i, id := range ids {
		nodes[i] = types.NodeDescriptor{ID: id}
	}

	return nodes
}

type tableResolver map[string]string

func (r tableResolver) Owner(_ context.Context, cacheName, key string, _ types.TopologySnapshot) (string, error) {
	if node, ok := r[cacheName+"/"+key]; ok {
		return node, nil
	}

	return "", types.ErrAffinityUnresolved
}

func TestCompute_ClusterSingleton(t *testing.T) {
	cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 1, MaxPerNodeCount: 1}
	top := types.NewTopologySnapshot(1, servers("node-03", "node-01", "node-02", "node-04"))

	asgn, err := Compute(context.Background(), cfg, top, nil)

	require.NoError(t, err)
	require.Equal(t, int64(1), asgn.TopologyVersion)
	require.Equal(t, map[string]int{"node-01": 1}, asgn.Counts)

	t.Run("placement is stable while the lowest node stays", func(t *testing.T) {
		grown := types.NewTopologySnapshot(2, servers("node-01", "node-02", "node-03", "node-04", "node-05", "node-06"))

		next, err := Compute(context.Background(), cfg, grown, nil)

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-01": 1}, next.Counts)
		require.Empty(t, Diff(asgn, next))
	})

	t.Run("placement moves only when the hosting node leaves", func(t *testing.T) {
		shrunk := types.NewTopologySnapshot(3, servers("node-02", "node-03"))

		next, err := Compute(context.Background(), cfg, shrunk, nil)

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-02": 1}, next.Counts)
	})
}

func TestCompute_NodeSingleton(t *testing.T) {
	cfg := types.ServiceConfiguration{Name: "svc", MaxPerNodeCount: 1}
	nodes := servers("node-01", "node-02", "node-03", "node-04")
	nodes = append(nodes, types.NodeDescriptor{ID: "node-05", Client: true})
	top := types.NewTopologySnapshot(1, nodes)

	asgn, err := Compute(context.Background(), cfg, top, nil)

	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"node-01": 1, "node-02": 1, "node-03": 1, "node-04": 1,
	}, asgn.Counts)

	t.Run("clients included when opted in", func(t *testing.T) {
		all := cfg
		all.IncludeClients = true

		asgn, err := Compute(context.Background(), all, top, nil)

		require.NoError(t, err)
		require.Equal(t, 5, asgn.Total())
	})

	t.Run("adding a server adds exactly one instance", func(t *testing.T) {
		grown := types.NewTopologySnapshot(2, append(servers("node-01", "node-02", "node-03", "node-04", "node-06"),
			types.NodeDescriptor{ID: "node-05", Client: true}))

		next, err := Compute(context.Background(), cfg, grown, nil)

		require.NoError(t, err)
		require.Equal(t, 5, next.Total())
		require.Equal(t, map[string]int{"node-06": 1}, Diff(asgn, next))
	})
}

func TestCompute_TotalWithPerNodeCap(t *testing.T) {
	// totalCount exceeds the nodes available at cap 1: legal
	// under-provisioning, never an error.
	cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 5, MaxPerNodeCount: 1}
	top := types.NewTopologySnapshot(1, servers("node-01", "node-02", "node-03", "node-04"))

	asgn, err := Compute(context.Background(), cfg, top, nil)

	require.NoError(t, err)
	require.Equal(t, 4, asgn.Total())

	t.Run("added nodes absorb the remainder", func(t *testing.T) {
		grown := types.NewTopologySnapshot(2, servers("node-01", "node-02", "node-03", "node-04", "node-05", "node-06"))

		next, err := Compute(context.Background(), cfg, grown, nil)

		require.NoError(t, err)
		require.Equal(t, 5, next.Total())
		require.Equal(t, map[string]int{"node-05": 1}, Diff(asgn, next))
	})
}

func TestCompute_RoundRobinDistribution(t *testing.T) {
	t.Run("spreads total evenly in node ID order", func(t *testing.T) {
		cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 5}
		top := types.NewTopologySnapshot(1, servers("node-02", "node-01", "node-03"))

		asgn, err := Compute(context.Background(), cfg, top, nil)

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-01": 2, "node-02": 2, "node-03": 1}, asgn.Counts)
	})

	t.Run("respects per-node cap", func(t *testing.T) {
		cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 10, MaxPerNodeCount: 2}
		top := types.NewTopologySnapshot(1, servers("node-01", "node-02", "node-03"))

		asgn, err := Compute(context.Background(), cfg, top, nil)

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-01": 2, "node-02": 2, "node-03": 2}, asgn.Counts)
	})

	t.Run("unbounded total fills every node to cap", func(t *testing.T) {
		cfg := types.ServiceConfiguration{Name: "svc", MaxPerNodeCount: 3}
		top := types.NewTopologySnapshot(1, servers("node-01", "node-02"))

		asgn, err := Compute(context.Background(), cfg, top, nil)

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-01": 3, "node-02": 3}, asgn.Counts)
	})
}

func TestCompute_Affinity(t *testing.T) {
	cfg := types.ServiceConfiguration{Name: "svc", AffinityCacheName: "cache", AffinityKey: "k1"}
	top := types.NewTopologySnapshot(1, servers("node-01", "node-02", "node-03"))

	t.Run("pins to the owning node", func(t *testing.T) {
		asgn, err := Compute(context.Background(), cfg, top, tableResolver{"cache/k1": "node-02"})

		require.NoError(t, err)
		require.Equal(t, map[string]int{"node-02": 1}, asgn.Counts)
	})

	t.Run("unresolved key yields an empty assignment", func(t *testing.T) {
		asgn, err := Compute(context.Background(), cfg, top, tableResolver{})

		require.NoError(t, err)
		require.Empty(t, asgn.Counts)
	})

	t.Run("owner outside the topology yields an empty assignment", func(t *testing.T) {
		asgn, err := Compute(context.Background(), cfg, top, tableResolver{"cache/k1": "node-09"})

		require.NoError(t, err)
		require.Empty(t, asgn.Counts)
	})

	t.Run("missing resolver is a configuration error", func(t *testing.T) {
		_, err := Compute(context.Background(), cfg, top, nil)

		require.ErrorIs(t, err, types.ErrConfiguration)
	})
}

func TestCompute_EmptyEligibleSet(t *testing.T) {
	cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 2, MaxPerNodeCount: 1}
	top := types.NewTopologySnapshot(1, []types.NodeDescriptor{{ID: "node-01", Client: true}})

	asgn, err := Compute(context.Background(), cfg, top, nil)

	require.NoError(t, err)
	require.Empty(t, asgn.Counts)
}

func TestCompute_InvalidConfiguration(t *testing.T) {
	top := types.NewTopologySnapshot(1, servers("node-01"))

	_, err := Compute(context.Background(), types.ServiceConfiguration{Name: "svc"}, top, nil)

	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestCompute_Deterministic(t *testing.T) {
	cfg := types.ServiceConfiguration{Name: "svc", TotalCount: 7, MaxPerNodeCount: 3}
	top := types.NewTopologySnapshot(5, servers("node-04", "node-02", "node-05", "node-01", "node-03"))

	first, err := Compute(context.Background(), cfg, top, nil)
	require.NoError(t, err)

	for range 10 {
		again, err := Compute(context.Background(), cfg, top, nil)

		require.NoError(t, err)
		require.True(t, first.Equal(again))
		require.Empty(t, Diff(first, again))
	}
}

func TestDiff(t *testing.T) {
	t.Run("computes signed deltas over the union of nodes", func(t *testing.T) {
		prev := types.Assignment{Counts: map[string]int{"node-01": 2, "node-02": 1, "node-03": 1}}
		next := types.Assignment{Counts: map[string]int{"node-01": 3, "node-03": 1, "node-04": 2}}

		require.Equal(t, map[string]int{"node-01": 1, "node-02": -1, "node-04": 2}, Diff(prev, next))
	})

	t.Run("identical assignments yield an empty delta", func(t *testing.T) {
		a := types.Assignment{Counts: map[string]int{"node-01": 1}}

		require.Empty(t, Diff(a, a.Clone()))
	})

	t.Run("empty previous assignment yields all starts", func(t *testing.T) {
		next := types.Assignment{Counts: map[string]int{"node-01": 1, "node-02": 1}}

		require.Equal(t, map[string]int{"node-01": 1, "node-02": 1}, Diff(types.Assignment{}, next))
	})
}
