// Package runner hosts service instances on the local node.
//
// The manager receives per-service instance targets from the coordinator
// and converges the local instance set toward them: it starts instances
// when the target is above the live count and cancels the youngest
// instances when it is below. Targets carry absolute counts, so applying
// the same target twice is a no-op.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/SavtechSolutions/ignite/types"
)

// FactoryResolver looks up the service factory registered on this node for
// a configuration type name.
type FactoryResolver func(typeName string) (types.ServiceFactory, bool)

// ReportFunc receives the cumulative instance counts for a service after a
// target has been applied. applyErr is non-nil when the node fell short of
// the target.
type ReportFunc func(name string, counts types.InstanceCounts, applyErr error)

// Manager owns every service instance running on the local node.
type Manager struct {
	node    string
	resolve FactoryResolver
	report  ReportFunc
	logger  types.Logger
	metrics types.MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	services map[string]*serviceState
}

// serviceState tracks one deployed service on this node. Its mutex
// serializes target application per service; targets for different
// services apply concurrently.
type serviceState struct {
	mu        sync.Mutex
	name      string
	typeName  string
	instances []*instance // youngest last
	started   uint64
	cancelled uint64
	next      int // round-robin cursor for proxied calls
}

// instance is a single running service instance.
type instance struct {
	id       string
	svc      types.Service
	cancel   context.CancelFunc
	execDone chan struct{}
}

// NewManager creates an instance manager for the local node.
//
// Parameters:
//   - node: Local node ID
//   - resolve: Factory lookup for configuration type names
//   - report: Callback invoked with cumulative counts after each target
//   - logger: Logger for lifecycle events
//   - metrics: Collector for instance metrics
//
// Returns:
//   - *Manager: Manager ready to accept targets
func NewManager(node string, resolve FactoryResolver, report ReportFunc, logger types.Logger, metrics types.MetricsCollector) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		node:     node,
		resolve:  resolve,
		report:   report,
		logger:   logger,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
		services: make(map[string]*serviceState),
	}
}

// ApplyTarget converges the local instance count for a service toward the
// given absolute target.
//
// New instances initialize in parallel; an Init failure never blocks
// sibling instances and surfaces in the returned error after every sibling
// has settled. Excess instances are cancelled youngest first, waiting for
// each Execute to return before Cancel is called.
//
// Parameters:
//   - ctx: Context bounding cancellation waits
//   - name: Service name
//   - typeName: Configuration type name used to resolve the factory
//   - target: Absolute number of instances this node should run
//
// Returns:
//   - types.InstanceCounts: Cumulative counts after the target was applied
//   - error: ErrFactoryNotRegistered or an ErrInstanceInit wrap
func (m *Manager) ApplyTarget(ctx context.Context, name, typeName string, target int) (types.InstanceCounts, error) {
	st := m.state(name, typeName)

	st.mu.Lock()
	defer st.mu.Unlock()

	var applyErr error

	delta := target - len(st.instances)
	switch {
	case delta > 0:
		applyErr = m.startInstances(st, delta)
	case delta < 0:
		m.cancelInstances(ctx, st, -delta)
	}

	counts := types.InstanceCounts{Started: st.started, Cancelled: st.cancelled}

	if m.report != nil {
		m.report(name, counts, applyErr)
	}

	return counts, applyErr
}

func (m *Manager) state(name, typeName string) *serviceState {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.services[name]
	if !ok {
		st = &serviceState{name: name, typeName: typeName}
		m.services[name] = st
	}
	if typeName != "" {
		st.typeName = typeName
	}

	return st
}

// startInstances brings up n new instances. Callers hold st.mu.
func (m *Manager) startInstances(st *serviceState, n int) error {
	factory, ok := m.resolve(st.typeName)
	if !ok {
		m.logger.Warn("no factory for service type", "service", st.name, "type", st.typeName)

		return fmt.Errorf("%w: %s", types.ErrFactoryNotRegistered, st.typeName)
	}

	type result struct {
		inst *instance
		err  error
	}

	results := make(chan result, n)
	for range n {
		go func() {
			inst, err := m.startOne(st.name, factory)
			results <- result{inst: inst, err: err}
		}()
	}

	var initErrs []error
	for range n {
		res := <-results
		if res.err != nil {
			initErrs = append(initErrs, res.err)

			continue
		}
		st.instances = append(st.instances, res.inst)
		st.started++
		m.metrics.RecordInstanceStarted(st.name)
	}

	if len(initErrs) > 0 {
		return fmt.Errorf("%w: %d of %d instances of %s: %w",
			types.ErrInstanceInit, len(initErrs), n, st.name, errors.Join(initErrs...))
	}

	return nil
}

// startOne constructs and initializes a single instance. On success the
// instance's Execute is already running on its own goroutine.
func (m *Manager) startOne(name string, factory types.ServiceFactory) (*instance, error) {
	instCtx, cancel := context.WithCancel(m.ctx)
	inst := &instance{
		id:       uuid.NewString(),
		svc:      factory(),
		cancel:   cancel,
		execDone: make(chan struct{}),
	}

	if err := inst.svc.Init(instCtx); err != nil {
		cancel()
		m.metrics.RecordInstanceInitFailure(name)
		m.logger.Error("service instance failed to initialize",
			"service", name, "instance", inst.id, "error", err)

		return nil, fmt.Errorf("instance %s: %w", inst.id, err)
	}

	m.logger.Info("service instance started", "service", name, "instance", inst.id)

	go func() {
		defer close(inst.execDone)

		if err := inst.svc.Execute(instCtx); err != nil && instCtx.Err() == nil {
			m.logger.Error("service instance execution failed",
				"service", name, "instance", inst.id, "error", err)
		}
	}()

	return inst, nil
}

// cancelInstances stops the n youngest instances. Callers hold st.mu.
func (m *Manager) cancelInstances(ctx context.Context, st *serviceState, n int) {
	for range n {
		if len(st.instances) == 0 {
			return
		}

		last := len(st.instances) - 1
		inst := st.instances[last]
		st.instances = st.instances[:last]

		inst.cancel()

		select {
		case <-inst.execDone:
		case <-ctx.Done():
			m.logger.Warn("gave up waiting for instance to stop executing",
				"service", st.name, "instance", inst.id)
		}

		inst.svc.Cancel()
		st.cancelled++
		m.metrics.RecordInstanceCancelled(st.name)
		m.logger.Info("service instance cancelled", "service", st.name, "instance", inst.id)
	}
}

// Counts returns the cumulative instance counts for a service. Unknown
// services report zero.
func (m *Manager) Counts(name string) types.InstanceCounts {
	m.mu.Lock()
	st, ok := m.services[name]
	m.mu.Unlock()

	if !ok {
		return types.InstanceCounts{}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	return types.InstanceCounts{Started: st.started, Cancelled: st.cancelled}
}

// AllCounts returns cumulative counts for every service this node has
// ever hosted.
func (m *Manager) AllCounts() map[string]types.InstanceCounts {
	m.mu.Lock()
	states := make([]*serviceState, 0, len(m.services))
	for _, st := range m.services {
		states = append(states, st)
	}
	m.mu.Unlock()

	out := make(map[string]types.InstanceCounts, len(states))
	for _, st := range states {
		st.mu.Lock()
		out[st.name] = types.InstanceCounts{Started: st.started, Cancelled: st.cancelled}
		st.mu.Unlock()
	}

	return out
}

// LiveCount returns the number of live instances of a service on this node.
func (m *Manager) LiveCount(name string) int {
	m.mu.Lock()
	st, ok := m.services[name]
	m.mu.Unlock()

	if !ok {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.instances)
}

// Invoke routes a proxied call to a live local instance of the service.
// Calls rotate across instances. Services that do not implement
// types.Handler reject calls.
//
// Returns:
//   - []byte: Handler response payload
//   - error: ErrServiceUnavailable when no live instance can serve
func (m *Manager) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	st, ok := m.services[name]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrServiceUnavailable, name)
	}

	st.mu.Lock()
	if len(st.instances) == 0 {
		st.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", types.ErrServiceUnavailable, name)
	}
	inst := st.instances[st.next%len(st.instances)]
	st.next++
	st.mu.Unlock()

	handler, ok := inst.svc.(types.Handler)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not accept calls", types.ErrServiceUnavailable, name)
	}

	return handler.Serve(ctx, payload)
}

// Service returns a live local instance of the service, if one exists.
// Callers that need the direct instance rather than a proxy use this to
// bypass routing entirely.
func (m *Manager) Service(name string) (types.Service, bool) {
	m.mu.Lock()
	st, ok := m.services[name]
	m.mu.Unlock()

	if !ok {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.instances) == 0 {
		return nil, false
	}

	return st.instances[0].svc, true
}

// Local returns a live local instance of the service as a handler, if one
// exists and accepts calls.
func (m *Manager) Local(name string) (types.Handler, bool) {
	m.mu.Lock()
	st, ok := m.services[name]
	m.mu.Unlock()

	if !ok {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, inst := range st.instances {
		if h, ok := inst.svc.(types.Handler); ok {
			return h, true
		}
	}

	return nil, false
}

// Shutdown cancels every live instance and waits for them to stop, bounded
// by ctx.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	states := make([]*serviceState, 0, len(m.services))
	for _, st := range m.services {
		states = append(states, st)
	}
	m.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		m.cancelInstances(ctx, st, len(st.instances))
		st.mu.Unlock()
	}

	m.cancel()
}
