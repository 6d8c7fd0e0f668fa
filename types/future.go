package types

import (
	"context"
	"sync"
)

// Future tracks the completion of an asynchronous deployment operation.
//
// A deploy future resolves once the coordinator has recorded the assignment
// and issued start commands to all target nodes, not once instances finish
// initializing. An undeploy future resolves once cancel acknowledgments (or
// a bounded timeout) have been collected.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewFuture creates an unresolved future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// ResolvedFuture creates a future that is already completed with err
// (nil for success).
func ResolvedFuture(err error) *Future {
	f := NewFuture()
	f.Complete(err)

	return f
}

// Complete resolves the future with the given error (nil for success).
// Only the first call has any effect.
func (f *Future) Complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the completion error. It is only valid after Done is closed.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the future resolves or ctx is cancelled.
//
// Returns:
//   - error: The completion error, or ctx.Err() on cancellation
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
