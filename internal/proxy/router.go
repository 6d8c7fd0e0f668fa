// Package proxy routes service calls to live instances anywhere in the
// cluster.
//
// The router prefers a local instance, then falls back to resolving a
// hosting node through the coordinator. Resolved nodes are cached per
// service so repeated calls stick to one host; the cache entry is dropped
// as soon as a call through it fails, and the next call re-resolves.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/SavtechSolutions/ignite/internal/runner"
	"github.com/SavtechSolutions/ignite/internal/wire"
	"github.com/SavtechSolutions/ignite/types"
)

// ResolveFunc asks the coordinator for a node hosting a live instance of
// the service. Implementations return ErrServiceUnavailable while no
// instance is live.
type ResolveFunc func(ctx context.Context, name string) (string, error)

// Router dispatches proxied service calls.
type Router struct {
	node      string
	bus       types.Bus
	local     *runner.Manager
	resolve   ResolveFunc
	retry     time.Duration
	wait      time.Duration
	retryable func(error) bool
	logger    types.Logger
	metrics   types.MetricsCollector

	cache *xsync.Map[string, string]
}

// Config carries the router's collaborators.
type Config struct {
	Node    string
	Bus     types.Bus
	Local   *runner.Manager
	Resolve ResolveFunc
	Retry   time.Duration // delay between resolution attempts
	Wait    time.Duration // total time to wait for an instance to appear

	// Retryable classifies transport-level failures worth retrying against
	// a freshly resolved host. ErrServiceUnavailable is always retried;
	// service-level errors always propagate. Optional.
	Retryable func(error) bool

	Logger  types.Logger
	Metrics types.MetricsCollector
}

// NewRouter creates a service call router for the local node.
func NewRouter(cfg Config) *Router {
	return &Router{
		node:      cfg.Node,
		bus:       cfg.Bus,
		local:     cfg.Local,
		resolve:   cfg.Resolve,
		retry:     cfg.Retry,
		wait:      cfg.Wait,
		retryable: cfg.Retryable,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		cache:     xsync.NewMap[string, string](),
	}
}

// Call invokes a live instance of the named service and returns its reply.
//
// Resolution order: sticky cached host, then a local instance, then the
// coordinator. While the service is deployed but not yet started anywhere,
// the call polls resolution until the wait budget runs out, then fails
// with ErrServiceUnavailable.
func (r *Router) Call(ctx context.Context, name string, payload []byte) ([]byte, error) {
	if node, ok := r.cache.Load(name); ok {
		resp, err := r.dispatch(ctx, node, name, payload)
		if err == nil {
			return resp, nil
		}
		if !r.shouldRetry(err) {
			return nil, err
		}
		// The sticky host lost its instance; re-resolve.
		r.cache.Delete(name)
	}

	deadline := time.NewTimer(r.wait)
	defer deadline.Stop()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		if r.local.LiveCount(name) > 0 {
			resp, err := r.local.Invoke(ctx, name, payload)
			if err == nil {
				r.cache.Store(name, r.node)
				r.metrics.RecordProxyCall(name, false)

				return resp, nil
			}
			if !r.shouldRetry(err) {
				return nil, err
			}
		}

		node, err := r.resolve(ctx, name)
		if err == nil {
			resp, err := r.dispatch(ctx, node, name, payload)
			if err == nil {
				r.cache.Store(name, node)

				return resp, nil
			}
			if !r.shouldRetry(err) {
				return nil, err
			}
		} else if !r.shouldRetry(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", types.ErrServiceUnavailable, name, ctx.Err())
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s", types.ErrServiceUnavailable, name)
		case <-ticker.C:
		}
	}
}

// dispatch delivers one call to a specific node.
func (r *Router) dispatch(ctx context.Context, node, name string, payload []byte) ([]byte, error) {
	if node == r.node {
		resp, err := r.local.Invoke(ctx, name, payload)
		if err == nil {
			r.metrics.RecordProxyCall(name, false)
		}

		return resp, err
	}

	body, err := wire.Encode(wire.InvokeRequest{Name: name, Payload: payload})
	if err != nil {
		return nil, err
	}

	data, err := r.bus.Request(ctx, node, wire.SubjectInvoke, body)
	if err != nil {
		return nil, fmt.Errorf("call to %s on node %s failed: %w", name, node, err)
	}

	var resp wire.InvokeResponse
	if err := wire.Decode(data, &resp); err != nil {
		return nil, err
	}

	r.metrics.RecordProxyCall(name, true)

	return resp.Payload, nil
}

// Invalidate drops the sticky host for a service, forcing the next call
// to re-resolve. The grid calls this on topology changes.
func (r *Router) Invalidate(name string) {
	r.cache.Delete(name)
}

// InvalidateAll clears the sticky host cache.
func (r *Router) InvalidateAll() {
	r.cache.Clear()
}

// shouldRetry reports whether a failure may resolve itself through
// re-resolution, e.g. the instance moved or has not started yet.
func (r *Router) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, types.ErrServiceUnavailable) {
		return true
	}
	if r.retryable != nil {
		return r.retryable(err)
	}

	return false
}
