package types

import "context"

// Service is a pluggable unit of service logic deployed on cluster nodes.
//
// A service instance moves through the lifecycle
//
//	Created → Initialized → Executing → Cancelled
//
// driven by the local instance manager on its node:
//
//  1. Init is called once after construction. An Init error marks the
//     instance as failed; it never counts toward the node's live total and
//     is not retried until a later assignment recompute.
//  2. Execute is called in its own goroutine once Init succeeds. It should
//     run until ctx is cancelled. The same ctx is shared with Init, so
//     resources acquired during Init can be scoped to it.
//  3. Cancel is called after Execute returns. It must release every
//     resource the instance still owns before returning; the instance is
//     only counted as cancelled once Cancel completes.
//
// Implementations must be safe to run with multiple instances of the same
// service on one node.
type Service interface {
	// Init prepares the instance for execution.
	Init(ctx context.Context) error

	// Execute runs the instance until ctx is cancelled.
	Execute(ctx context.Context) error

	// Cancel releases all resources owned by the instance.
	Cancel()
}

// Handler is an optional capability for services that accept proxied calls.
//
// A service implementing Handler can be invoked remotely through the grid's
// service proxy; the payload format is application-defined.
type Handler interface {
	// Serve handles a single proxied request and returns the response payload.
	Serve(ctx context.Context, req []byte) ([]byte, error)
}

// ServiceFactory constructs a new, unstarted service instance.
//
// Factories are registered per node (keyed by configuration type name) and
// invoked by the local instance manager each time the assignment calls for
// an additional instance. Factories must return a fresh value on every call.
type ServiceFactory func() Service
