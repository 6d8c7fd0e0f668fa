// Package coordinator implements the cluster-wide deployment coordinator.
//
// Exactly one node activates its coordinator at a time, driven by the
// grid's election loop. The active coordinator owns the deployment
// registry: it validates and registers deployments, recomputes assignments
// on every topology change, diffs them against the last published state,
// and fans the resulting per-node targets out over the bus. Deploy futures
// resolve as soon as the assignment is recorded and its targets are issued;
// instance startup is observed afterwards through count reports, which keep
// the descriptor view current.
package coordinator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SavtechSolutions/ignite/internal/wire"
	"github.com/SavtechSolutions/ignite/placement"
	"github.com/SavtechSolutions/ignite/types"
)

// Coordinator manages the deployment registry and assignment fan-out.
type Coordinator struct {
	node            string
	bus             types.Bus
	resolver        types.AffinityResolver
	store           Store
	logger          types.Logger
	metrics         types.MetricsCollector
	hooks           types.Hooks
	undeployTimeout time.Duration

	mu          sync.Mutex
	active      bool
	top         types.TopologySnapshot
	deployments map[string]*deployment
}

// deployment is one registered service deployment. Its mutex serializes
// recomputation and report handling per service name; distinct names
// proceed concurrently.
type deployment struct {
	mu         sync.Mutex
	cfg        types.ServiceConfiguration
	state      types.DeploymentState
	assignment types.Assignment
	nodes      map[string]types.InstanceCounts
	future     *types.Future
}

// Config carries the coordinator's collaborators.
type Config struct {
	Node            string
	Bus             types.Bus
	Resolver        types.AffinityResolver
	Store           Store // optional; nil disables persistence
	Logger          types.Logger
	Metrics         types.MetricsCollector
	Hooks           types.Hooks
	UndeployTimeout time.Duration
}

// New creates an inactive coordinator. Call Activate when this node wins
// the election.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		node:            cfg.Node,
		bus:             cfg.Bus,
		resolver:        cfg.Resolver,
		store:           cfg.Store,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		hooks:           cfg.Hooks,
		undeployTimeout: cfg.UndeployTimeout,
		deployments:     make(map[string]*deployment),
	}
}

// Activate assumes the coordinator role at the given snapshot.
//
// When a deployment store is configured, the registry is rebuilt from it
// first; restored deployments start Pending with an empty published
// assignment, so the following recompute fans full targets out and nodes
// already at target simply report their counts back.
func (c *Coordinator) Activate(ctx context.Context, top types.TopologySnapshot) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()

		return nil
	}
	c.active = true
	c.top = top
	c.mu.Unlock()

	if c.store != nil {
		if err := c.restore(ctx); err != nil {
			return fmt.Errorf("failed to restore deployments: %w", err)
		}
	}

	c.logger.Info("coordinator activated", "node", c.node, "topologyVersion", top.Version)
	c.recomputeAll(ctx, top)

	return nil
}

// Deactivate relinquishes the coordinator role. Registered deployments are
// kept so a later re-activation can resume from local state.
func (c *Coordinator) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}
	c.active = false
	c.logger.Info("coordinator deactivated", "node", c.node)
}

// Active reports whether this coordinator currently holds the role.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

func (c *Coordinator) restore(ctx context.Context) error {
	cfgs, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cfg := range cfgs {
		if _, ok := c.deployments[cfg.Name]; ok {
			continue
		}
		c.deployments[cfg.Name] = &deployment{
			cfg:    cfg,
			state:  types.DeploymentPending,
			nodes:  make(map[string]types.InstanceCounts),
			future: types.NewFuture(),
		}
		c.logger.Info("restored deployment from store", "service", cfg.Name)
	}

	return nil
}

// Deploy registers a deployment and publishes its first assignment.
//
// Redeploying a name with an equivalent configuration returns the existing
// deployment's future; a conflicting configuration is rejected with
// ErrDuplicateName and leaves the existing deployment untouched.
//
// Returns:
//   - *types.Future: Resolves once the assignment is recorded and start
//     targets are issued; instance startup is not awaited
//   - error: Validation or registration error
func (c *Coordinator) Deploy(ctx context.Context, cfg types.ServiceConfiguration) (*types.Future, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()

		return nil, types.ErrNotCoordinator
	}

	if existing, ok := c.deployments[cfg.Name]; ok {
		c.mu.Unlock()

		existing.mu.Lock()
		equivalent := existing.cfg.Equivalent(cfg)
		future := existing.future
		existing.mu.Unlock()

		if equivalent {
			return future, nil
		}

		return nil, fmt.Errorf("%w: %s", types.ErrDuplicateName, cfg.Name)
	}

	d := &deployment{
		cfg:    cfg,
		state:  types.DeploymentPending,
		nodes:  make(map[string]types.InstanceCounts),
		future: types.NewFuture(),
	}
	c.deployments[cfg.Name] = d
	top := c.top
	c.mu.Unlock()

	c.metrics.RecordDeploy(cfg.Name)
	c.logger.Info("deployment registered", "service", cfg.Name, "type", cfg.TypeName())

	if c.store != nil {
		if err := c.store.Save(ctx, cfg); err != nil {
			c.logger.Warn("failed to persist deployment", "service", cfg.Name, "error", err)
		}
	}

	c.refresh(ctx, d, top)

	return d.future, nil
}

// Undeploy removes a deployment and cancels its instances cluster-wide.
//
// Zero targets go out as requests so departing instances are acknowledged;
// the wait is bounded by the configured undeploy timeout. Undeploying an
// unknown name is a no-op.
func (c *Coordinator) Undeploy(ctx context.Context, name string) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()

		return types.ErrNotCoordinator
	}
	d, ok := c.deployments[name]
	if ok {
		delete(c.deployments, name)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}

	d.mu.Lock()
	d.state = types.DeploymentUndeploying
	targets := make(map[string]struct{}, len(d.nodes))
	for node := range d.assignment.Counts {
		targets[node] = struct{}{}
	}
	for node, counts := range d.nodes {
		if counts.Live() > 0 {
			targets[node] = struct{}{}
		}
	}
	typeName := d.cfg.TypeName()
	topVersion := d.assignment.TopologyVersion
	d.assignment = types.Assignment{Name: name, TopologyVersion: topVersion, Counts: map[string]int{}}
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.undeployTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for node := range targets {
		wg.Add(1)
		go func(node string) {
			defer wg.Done()

			body, err := wire.Encode(wire.Target{
				Name:            name,
				Type:            typeName,
				TopologyVersion: topVersion,
				Count:           0,
				Coordinator:     c.node,
			})
			if err != nil {
				c.logger.Error("failed to encode undeploy target", "service", name, "error", err)

				return
			}

			if _, err := c.bus.Request(ctx, node, wire.SubjectTarget, body); err != nil {
				c.logger.Warn("undeploy not acknowledged", "service", name, "node", node, "error", err)
			}
		}(node)
	}
	wg.Wait()

	d.mu.Lock()
	d.state = types.DeploymentGone
	future := d.future
	d.mu.Unlock()

	// Normally a no-op: deploy futures resolve when targets are first
	// issued. It only fires for a deployment undeployed before its first
	// refresh, which must not leave a waiter hanging.
	future.Complete(fmt.Errorf("%w: %s was undeployed", types.ErrServiceUnavailable, name))

	if c.store != nil {
		if err := c.store.Delete(ctx, name); err != nil {
			c.logger.Warn("failed to remove persisted deployment", "service", name, "error", err)
		}
	}

	c.metrics.RecordUndeploy(name)
	c.logger.Info("deployment removed", "service", name)

	return nil
}

// UndeployAll removes every registered deployment.
func (c *Coordinator) UndeployAll(ctx context.Context) error {
	c.mu.Lock()
	names := make([]string, 0, len(c.deployments))
	for name := range c.deployments {
		names = append(names, name)
	}
	c.mu.Unlock()

	for _, name := range names {
		if err := c.Undeploy(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

// OnTopologyChange recomputes every deployment against a new snapshot.
// Snapshots at or below the last acted-on version are ignored.
func (c *Coordinator) OnTopologyChange(ctx context.Context, top types.TopologySnapshot) {
	c.mu.Lock()
	if !c.active || top.Version <= c.top.Version {
		c.mu.Unlock()

		return
	}
	c.top = top
	c.mu.Unlock()

	c.logger.Debug("recomputing assignments", "topologyVersion", top.Version, "nodes", len(top.Nodes))
	c.recomputeAll(ctx, top)
}

// Reconcile republishes assignments at the current snapshot. Useful after
// transport hiccups; targets are absolute, so it is always safe.
func (c *Coordinator) Reconcile(ctx context.Context) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()

		return
	}
	top := c.top
	for _, d := range c.deployments {
		d.mu.Lock()
		d.assignment = types.Assignment{}
		d.mu.Unlock()
	}
	c.mu.Unlock()

	c.recomputeAll(ctx, top)
}

func (c *Coordinator) recomputeAll(ctx context.Context, top types.TopologySnapshot) {
	c.mu.Lock()
	ds := make([]*deployment, 0, len(c.deployments))
	for _, d := range c.deployments {
		ds = append(ds, d)
	}
	c.mu.Unlock()

	for _, d := range ds {
		c.prune(d, top)
		c.refresh(ctx, d, top)
	}
}

// prune drops count entries for nodes no longer in the topology; their
// instances died with them.
func (c *Coordinator) prune(d *deployment, top types.TopologySnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for node := range d.nodes {
		if !top.Contains(node) {
			delete(d.nodes, node)
			changed = true
		}
	}

	if changed {
		c.notifyChanged(c.descriptorLocked(d))
	}
}

// refresh recomputes a deployment's assignment, fans full per-node targets
// out to every node whose count changed, and resolves the deploy future.
// The future completes on issuance, never on instance startup: an empty
// assignment (unresolved affinity key, no eligible nodes) still resolves
// it, with the deployment left pending until placement becomes possible.
func (c *Coordinator) refresh(ctx context.Context, d *deployment, top types.TopologySnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == types.DeploymentUndeploying || d.state == types.DeploymentGone {
		return
	}

	next, err := placement.Compute(ctx, d.cfg, top, c.resolver)
	if err != nil {
		c.logger.Error("failed to compute assignment", "service", d.cfg.Name, "error", err)
		d.future.Complete(err)

		return
	}

	delta := placement.Diff(d.assignment, next)
	d.assignment = next
	c.metrics.RecordAssignment(d.cfg.Name, next.TopologyVersion, next.Total())

	activated := d.state == types.DeploymentPending && next.Total() > 0
	if activated {
		d.state = types.DeploymentActive
	}

	for node := range delta {
		body, err := wire.Encode(wire.Target{
			Name:            d.cfg.Name,
			Type:            d.cfg.TypeName(),
			TopologyVersion: next.TopologyVersion,
			Count:           next.Count(node),
			Coordinator:     c.node,
		})
		if err != nil {
			c.logger.Error("failed to encode target", "service", d.cfg.Name, "error", err)

			continue
		}

		if err := c.bus.Send(ctx, node, wire.SubjectTarget, body); err != nil {
			c.logger.Warn("failed to send target", "service", d.cfg.Name, "node", node, "error", err)
		}
	}

	d.future.Complete(nil)

	if activated {
		c.logger.Info("deployment targets issued",
			"service", d.cfg.Name, "topologyVersion", next.TopologyVersion, "targetInstances", next.Total())
		c.notifyChanged(c.descriptorLocked(d))
	}
}

// HandleReport merges a node's count report into the deployment view.
//
// An instance initialization failure is per-node information: it is logged
// and surfaced through the error hook, and the node's live count simply
// stays below target. It never fails the deploy future and never touches
// sibling instances.
func (c *Coordinator) HandleReport(ctx context.Context, report wire.Report) {
	c.mu.Lock()
	d, ok := c.deployments[report.Name]
	c.mu.Unlock()

	if !ok {
		return
	}

	d.mu.Lock()
	if d.state == types.DeploymentGone {
		d.mu.Unlock()

		return
	}

	d.nodes[report.Node] = types.InstanceCounts{Started: report.Started, Cancelled: report.Cancelled}
	desc := c.descriptorLocked(d)
	d.mu.Unlock()

	if report.Error != "" {
		c.logger.Warn("instance initialization failed",
			"service", report.Name, "node", report.Node, "error", report.Error)
		c.notifyError(ctx, fmt.Errorf("%w: node %s: %s", types.ErrInstanceInit, report.Node, report.Error))
	}

	c.notifyChanged(desc)
}

// Descriptors returns a consistent snapshot of every deployment, sorted by
// service name.
func (c *Coordinator) Descriptors() []types.ServiceDescriptor {
	c.mu.Lock()
	ds := make([]*deployment, 0, len(c.deployments))
	for _, d := range c.deployments {
		ds = append(ds, d)
	}
	c.mu.Unlock()

	out := make([]types.ServiceDescriptor, 0, len(ds))
	for _, d := range ds {
		d.mu.Lock()
		out = append(out, c.descriptorLocked(d))
		d.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Descriptor returns the descriptor for one service.
func (c *Coordinator) Descriptor(name string) (types.ServiceDescriptor, bool) {
	c.mu.Lock()
	d, ok := c.deployments[name]
	c.mu.Unlock()

	if !ok {
		return types.ServiceDescriptor{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return c.descriptorLocked(d), true
}

func (c *Coordinator) descriptorLocked(d *deployment) types.ServiceDescriptor {
	nodes := make(map[string]types.InstanceCounts, len(d.nodes))
	for node, counts := range d.nodes {
		nodes[node] = counts
	}

	return types.ServiceDescriptor{
		Name:            d.cfg.Name,
		Configuration:   d.cfg,
		State:           d.state,
		TopologyVersion: d.assignment.TopologyVersion,
		Nodes:           nodes,
	}
}

// Resolve names a node hosting a live instance of the service. The
// requester is preferred when it hosts one; otherwise the lowest node ID
// wins, so independent resolutions agree.
func (c *Coordinator) Resolve(name, requester string) (string, error) {
	c.mu.Lock()
	d, ok := c.deployments[name]
	c.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrServiceUnavailable, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if counts, ok := d.nodes[requester]; ok && counts.Live() > 0 {
		return requester, nil
	}

	best := ""
	for node, counts := range d.nodes {
		if counts.Live() > 0 && (best == "" || node < best) {
			best = node
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w: %s", types.ErrServiceUnavailable, name)
	}

	return best, nil
}

func (c *Coordinator) notifyChanged(desc types.ServiceDescriptor) {
	if c.hooks.OnDeploymentChanged == nil {
		return
	}

	go func() {
		if err := c.hooks.OnDeploymentChanged(context.Background(), desc); err != nil {
			c.logger.Warn("deployment change hook failed", "service", desc.Name, "error", err)
		}
	}()
}

func (c *Coordinator) notifyError(ctx context.Context, err error) {
	if c.hooks.OnError == nil {
		return
	}

	go func() {
		if hookErr := c.hooks.OnError(ctx, err); hookErr != nil {
			c.logger.Warn("error hook failed", "error", hookErr)
		}
	}()
}
