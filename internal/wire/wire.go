// Package wire defines the bus subjects and message bodies exchanged
// between grid nodes. All messages are JSON; service configurations travel
// in declarative form only, factories and filters never cross the wire.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/SavtechSolutions/ignite/types"
)

// Bus subjects. Each node listens on its own address for these; the bus
// implementation scopes them per node.
const (
	// SubjectDeploy carries deploy requests forwarded to the coordinator.
	SubjectDeploy = "svc.deploy"

	// SubjectUndeploy carries undeploy requests forwarded to the coordinator.
	SubjectUndeploy = "svc.undeploy"

	// SubjectTarget carries per-node instance targets from the coordinator.
	SubjectTarget = "svc.target"

	// SubjectReport carries instance counts from nodes back to the coordinator.
	SubjectReport = "svc.report"

	// SubjectResolve asks the coordinator which node hosts a service.
	SubjectResolve = "svc.resolve"

	// SubjectDescriptors asks the coordinator for the deployment overview.
	SubjectDescriptors = "svc.descriptors"

	// SubjectInvoke carries a proxied service call to a hosting node.
	SubjectInvoke = "svc.invoke"
)

// Target tells a node how many instances of a service it should be
// running. It carries the full per-node count, not a delta; the receiving
// node computes the difference against its local state, so redelivery and
// rejoin reconciliation are idempotent.
type Target struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	TopologyVersion int64  `json:"topologyVersion"`
	Count           int    `json:"count"`
	Coordinator     string `json:"coordinator"`
}

// Report is a node's acknowledgement of applied targets: cumulative
// started and cancelled counts for one service on that node. Error is set
// when the node could not reach its target, for example when instances
// failed to initialize.
type Report struct {
	Node      string `json:"node"`
	Name      string `json:"name"`
	Started   uint64 `json:"started"`
	Cancelled uint64 `json:"cancelled"`
	Error     string `json:"error,omitempty"`
}

// DeployRequest forwards one or more service configurations to the
// coordinator in declarative form.
type DeployRequest struct {
	Configs []types.ServiceConfiguration `json:"configs"`
}

// UndeployRequest asks the coordinator to undeploy one service, or all of
// them when All is set.
type UndeployRequest struct {
	Name string `json:"name,omitempty"`
	All  bool   `json:"all,omitempty"`
}

// ResolveRequest asks the coordinator for a node hosting the named
// service. Requester lets the coordinator prefer a local instance.
type ResolveRequest struct {
	Name      string `json:"name"`
	Requester string `json:"requester"`
}

// ResolveResponse names a node hosting the service. Empty when no
// instance is live.
type ResolveResponse struct {
	Node string `json:"node"`
}

// DescriptorsResponse carries the coordinator's deployment overview.
type DescriptorsResponse struct {
	Descriptors []types.ServiceDescriptor `json:"descriptors"`
}

// InvokeRequest carries a proxied call payload to a hosting node.
type InvokeRequest struct {
	Name    string `json:"name"`
	Payload []byte `json:"payload,omitempty"`
}

// InvokeResponse carries the service handler's reply.
type InvokeResponse struct {
	Payload []byte `json:"payload,omitempty"`
}

// Encode marshals a message body to JSON.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", msg, err)
	}

	return data, nil
}

// Decode unmarshals a message body from JSON.
func Decode(data []byte, msg any) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to decode %T: %w", msg, err)
	}

	return nil
}
