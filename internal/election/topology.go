package election

import (
	"context"

	"github.com/SavtechSolutions/ignite/types"
)

// Topology elects the server node with the lowest ID in the current
// snapshot. The rule is evaluated independently on every node; because
// snapshots converge, so does the elected coordinator.
//
// Client nodes never hold the role.
type Topology struct{}

// Compile-time assertion that Topology implements ElectionAgent.
var _ types.ElectionAgent = (*Topology)(nil)

// NewTopology creates a topology-rule election agent.
func NewTopology() *Topology {
	return &Topology{}
}

// Campaign returns the lowest server node ID in the snapshot. The role is
// vacant when the snapshot has no server nodes.
func (t *Topology) Campaign(_ context.Context, self string, top types.TopologySnapshot) (string, bool, error) {
	leader := ""
	for _, node := range top.Nodes {
		if node.Client {
			continue
		}
		if leader == "" || node.ID < leader {
			leader = node.ID
		}
	}

	return leader, leader != "" && leader == self, nil
}

// Resign is a no-op: the topology rule has no lease to release.
func (t *Topology) Resign(_ context.Context) error {
	return nil
}
