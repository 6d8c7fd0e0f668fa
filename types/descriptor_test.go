package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceDescriptor_Counts(t *testing.T) {
	desc := ServiceDescriptor{
		Name: "svc",
		Nodes: map[string]InstanceCounts{
			"node-01": {Started: 3, Cancelled: 1},
			"node-02": {Started: 2, Cancelled: 2},
		},
	}

	require.Equal(t, 2, desc.NodeCount("node-01"))
	require.Equal(t, 0, desc.NodeCount("node-02"))
	require.Equal(t, 0, desc.NodeCount("node-09"))
	require.Equal(t, 2, desc.LiveCount())
	require.Equal(t, uint64(5), desc.Started())
	require.Equal(t, uint64(3), desc.Cancelled())
}

func TestServiceDescriptor_CloneIsIndependent(t *testing.T) {
	desc := ServiceDescriptor{
		Name:  "svc",
		Nodes: map[string]InstanceCounts{"node-01": {Started: 1}},
	}

	clone := desc.Clone()
	clone.Nodes["node-01"] = InstanceCounts{Started: 9}

	require.Equal(t, uint64(1), desc.Nodes["node-01"].Started)
}

func TestAssignment_Helpers(t *testing.T) {
	a := Assignment{
		Name:            "svc",
		TopologyVersion: 4,
		Counts:          map[string]int{"node-01": 2, "node-02": 1},
	}

	require.Equal(t, 3, a.Total())
	require.Equal(t, 2, a.Count("node-01"))
	require.Equal(t, 0, a.Count("node-09"))

	b := a.Clone()
	require.True(t, a.Equal(b))

	b.Counts["node-01"] = 1
	require.False(t, a.Equal(b))

	// Equality ignores the topology version.
	c := a.Clone()
	c.TopologyVersion = 9
	require.True(t, a.Equal(c))
}
