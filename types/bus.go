package types

import "context"

// BusHandler processes a single message addressed to the local node.
//
// from is the sending node's ID. The returned payload is delivered to the
// sender only for request/reply messages; for fire-and-forget sends it is
// discarded. Returned errors propagate to the requester.
type BusHandler func(ctx context.Context, from string, data []byte) ([]byte, error)

// Bus delivers node-addressed messages between cluster nodes.
//
// The grid uses the bus for three flows: coordinator-to-node target
// commands, node-to-coordinator count reports, and proxied service
// invocations. Implementations must provide reliable unicast; broadcast is
// expressed as a series of unicasts by the caller.
//
// Implementations:
//   - natsbus.Bus: core NATS request/reply on node-scoped subjects
//   - testing.LocalBus: synchronous in-process dispatch for tests
type Bus interface {
	// Handle registers the handler for a subject addressed to this node.
	// Registering the same subject twice replaces the handler.
	Handle(subject string, fn BusHandler) error

	// Request sends data to the given node and waits for its reply.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - node: Destination node ID
	//   - subject: Logical subject registered via Handle on the destination
	//   - data: Request payload
	//
	// Returns:
	//   - []byte: Reply payload
	//   - error: Transport error or the handler's error
	Request(ctx context.Context, node, subject string, data []byte) ([]byte, error)

	// Send delivers data to the given node without waiting for a reply.
	Send(ctx context.Context, node, subject string, data []byte) error
}
