package ignite

import (
	"context"
	"fmt"
	"sync"

	"github.com/SavtechSolutions/ignite/affinity"
	"github.com/SavtechSolutions/ignite/internal/coordinator"
	"github.com/SavtechSolutions/ignite/internal/election"
	"github.com/SavtechSolutions/ignite/internal/hooks"
	"github.com/SavtechSolutions/ignite/internal/logger"
	"github.com/SavtechSolutions/ignite/internal/metrics"
	"github.com/SavtechSolutions/ignite/internal/proxy"
	"github.com/SavtechSolutions/ignite/internal/runner"
	"github.com/SavtechSolutions/ignite/internal/wire"
	"github.com/SavtechSolutions/ignite/transport/natsbus"
	"github.com/SavtechSolutions/ignite/types"
)

// Grid deploys and manages services across a cluster of nodes.
//
// Grid is the main entry point of the library. Each cluster node runs one
// Grid instance. It handles:
//   - Deployment coordination on the elected coordinator node
//   - Local service instance lifecycle (init, execute, cancel)
//   - Per-node instance targets and count reporting over the bus
//   - Service proxying with sticky routing and failover
//   - Redeployment when nodes join or leave
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Deployment futures resolve exactly once
//
// Lifecycle:
//   - Create with New()
//   - Register factories with RegisterService()
//   - Call Start() to join coordination
//   - Deploy services from any node
//   - Call Stop() for graceful shutdown
type Grid struct {
	cfg  Config
	bus  types.Bus
	feed types.TopologyFeed

	// Optional dependencies
	election types.ElectionAgent
	resolver types.AffinityResolver
	store    types.DeploymentStore
	hooks    types.Hooks
	metrics  types.MetricsCollector
	logger   types.Logger

	coord  *coordinator.Coordinator
	run    *runner.Manager
	router *proxy.Router

	factoryMu sync.RWMutex
	factories map[string]types.ServiceFactory

	mu         sync.RWMutex
	started    bool
	coordNode  string
	topVersion int64
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Grid for one cluster node.
//
// The bus delivers node-addressed messages (targets, reports, proxied
// calls); the feed produces topology snapshots. Both are required. By
// default the lowest server node ID in each snapshot acts as coordinator
// and key-affinity deployments resolve owners over a consistent-hash ring;
// WithElectionAgent and WithAffinityResolver override those.
//
// Parameters:
//   - cfg: Node configuration. Zero timing fields get defaults.
//   - bus: Message bus connecting cluster nodes
//   - feed: Topology snapshot source
//   - opts: Optional dependencies (election, affinity, store, hooks,
//     metrics, logger)
//
// Returns:
//   - *Grid: Configured grid, not yet started
//   - error: ErrInvalidConfig, ErrBusRequired or ErrTopologyFeedRequired
//
// Example:
//
//	bus := natsbus.New(nc, cfg.NodeID)
//	feed := topology.NewPresence(kv, self, time.Second, logger)
//	grid, err := ignite.New(&cfg, bus, feed, ignite.WithLogger(logger))
func New(cfg *Config, bus types.Bus, feed types.TopologyFeed, opts ...Option) (*Grid, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if bus == nil {
		return nil, types.ErrBusRequired
	}
	if feed == nil {
		return nil, types.ErrTopologyFeedRequired
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := gridOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	g := &Grid{
		cfg:       *cfg,
		bus:       bus,
		feed:      feed,
		election:  options.electionAgent,
		resolver:  options.resolver,
		store:     options.store,
		metrics:   options.metrics,
		logger:    options.logger,
		factories: make(map[string]types.ServiceFactory),
	}

	if g.election == nil {
		g.election = election.NewTopology()
	}
	if g.resolver == nil {
		g.resolver = affinity.NewRing()
	}
	if g.logger == nil {
		g.logger = logger.NewNop()
	}
	if g.metrics == nil {
		g.metrics = metrics.NewNop()
	}
	if options.hooks != nil {
		g.hooks = *options.hooks
	} else {
		g.hooks = hooks.NewNop()
	}

	g.cfg.ValidateWithWarnings(g.logger)

	g.run = runner.NewManager(g.cfg.NodeID, g.lookupFactory, g.sendReport, g.logger, g.metrics)
	g.coord = coordinator.New(coordinator.Config{
		Node:            g.cfg.NodeID,
		Bus:             g.bus,
		Resolver:        g.resolver,
		Store:           g.store,
		Logger:          g.logger,
		Metrics:         g.metrics,
		Hooks:           g.hooks,
		UndeployTimeout: g.cfg.UndeployTimeout,
	})
	g.router = proxy.NewRouter(proxy.Config{
		Node:      g.cfg.NodeID,
		Bus:       g.bus,
		Local:     g.run,
		Resolve:   g.resolveHost,
		Retry:     g.cfg.ProxyRetryInterval,
		Wait:      g.cfg.ProxyWaitTimeout,
		Retryable: natsbus.IsConnectivityError,
		Logger:    g.logger,
		Metrics:   g.metrics,
	})

	return g, nil
}

// RegisterService adds a service factory to this node's local catalog.
//
// Factories never cross the wire: a node only starts instances of types it
// has registered itself. Register the same type name on every node that
// may host the service, before instances can be assigned to it.
//
// Parameters:
//   - typeName: Configuration type name (ServiceConfiguration.Type, or
//     Name when Type is empty)
//   - factory: Constructor returning a fresh Service per instance
func (g *Grid) RegisterService(typeName string, factory types.ServiceFactory) {
	g.factoryMu.Lock()
	defer g.factoryMu.Unlock()

	g.factories[typeName] = factory
}

// Start joins cluster coordination.
//
// Start subscribes the bus handlers, takes an initial topology snapshot,
// runs the coordinator election and begins watching for topology changes.
// If this node wins the election it activates the coordinator role,
// restoring persisted deployments when a store is configured.
//
// Parameters:
//   - ctx: Context bounding startup work (snapshot, election)
//
// Returns:
//   - error: ErrAlreadyStarted, or a feed or bus subscription error
func (g *Grid) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()

		return types.ErrAlreadyStarted
	}
	g.started = true
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.mu.Unlock()

	if err := g.subscribe(); err != nil {
		g.teardown()

		return err
	}

	snap, err := g.feed.Snapshot(ctx)
	if err != nil {
		g.teardown()

		return fmt.Errorf("failed to take initial topology snapshot: %w", err)
	}

	watch, err := g.feed.Watch(g.ctx)
	if err != nil {
		g.teardown()

		return fmt.Errorf("failed to watch topology: %w", err)
	}

	g.onTopology(ctx, snap)

	g.wg.Add(1)
	go g.watchLoop(watch)

	g.logger.Info("grid started", "node", g.cfg.NodeID, "client", g.cfg.Client, "topologyVersion", snap.Version)

	return nil
}

// Stop leaves cluster coordination and cancels all local instances.
//
// The coordinator role is resigned first so a surviving node can take
// over. Local instances are cancelled and waited for, bounded by ctx.
//
// Parameters:
//   - ctx: Context bounding cancellation waits
//
// Returns:
//   - error: ErrNotStarted when the grid is not running
func (g *Grid) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()

		return types.ErrNotStarted
	}
	g.started = false
	cancel := g.cancel
	g.mu.Unlock()

	if err := g.election.Resign(ctx); err != nil {
		g.logger.Warn("failed to resign coordinator role", "error", err)
	}
	g.coord.Deactivate()

	cancel()
	g.wg.Wait()

	g.run.Shutdown(ctx)

	g.logger.Info("grid stopped", "node", g.cfg.NodeID)

	return nil
}

func (g *Grid) teardown() {
	g.mu.Lock()
	g.started = false
	cancel := g.cancel
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Deploy requests a deployment described by cfg and returns a future that
// resolves once the coordinator has recorded the assignment and issued
// per-node start targets. Instance startup is not awaited: watch
// ServiceDescriptors (or the deployment-changed hook) for live counts.
//
// When this node holds the coordinator role the deployment registers
// locally; otherwise the declarative configuration is forwarded to the
// coordinator, bounded by Config.DeployForwardTimeout. A configuration
// with a custom Filter cannot be forwarded, since predicates do not
// serialize; deploy those from the coordinator node or use IncludeClients
// and affinity pins instead.
//
// Deploying a name that already exists with an equivalent configuration
// returns the existing deployment's future; a conflicting configuration
// fails with ErrDuplicateName.
//
// If cfg.Factory is set it is registered into the local catalog under the
// configuration's type name. Other nodes must register the type
// themselves.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - cfg: Declarative deployment configuration
//
// Returns:
//   - *Future: Resolves once the coordinator recorded the assignment and
//     issued start targets; instance startup is observed via descriptors
//   - error: ErrConfiguration, ErrDuplicateName, ErrNotCoordinator,
//     ErrNotStarted or a transport error
func (g *Grid) Deploy(ctx context.Context, cfg types.ServiceConfiguration) (*types.Future, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Factory != nil {
		g.RegisterService(cfg.TypeName(), cfg.Factory)
	}

	if g.coord.Active() {
		return g.coord.Deploy(ctx, cfg)
	}

	if cfg.Filter != nil {
		return nil, fmt.Errorf("%w: custom node filters cannot be forwarded to a remote coordinator", types.ErrConfiguration)
	}

	coordNode := g.coordinatorNode()
	if coordNode == "" {
		return nil, fmt.Errorf("%w: no coordinator elected yet", types.ErrNotCoordinator)
	}

	body, err := wire.Encode(wire.DeployRequest{Configs: []types.ServiceConfiguration{cfg}})
	if err != nil {
		return nil, err
	}

	// The Add races Stop's Wait on a stopped grid, so it stays under the
	// same lock that Stop flips started under.
	g.mu.RLock()
	if !g.started {
		g.mu.RUnlock()

		return nil, types.ErrNotStarted
	}
	g.wg.Add(1)
	g.mu.RUnlock()

	future := types.NewFuture()
	go func() {
		defer g.wg.Done()

		reqCtx, cancel := context.WithTimeout(context.Background(), g.cfg.DeployForwardTimeout)
		defer cancel()

		_, err := g.bus.Request(reqCtx, coordNode, wire.SubjectDeploy, body)
		future.Complete(err)
	}()

	return future, nil
}

// DeployClusterSingleton deploys exactly one instance of the service in
// the whole cluster. The instance moves to a surviving node when its host
// leaves.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Deployment name, also used as the factory type name
//   - factory: Service constructor, registered locally (may be nil if the
//     type is already registered)
//
// Returns:
//   - *Future: Resolves when the singleton's start target is issued
//   - error: Deployment error (see Deploy)
func (g *Grid) DeployClusterSingleton(ctx context.Context, name string, factory types.ServiceFactory) (*types.Future, error) {
	return g.Deploy(ctx, types.ServiceConfiguration{
		Name:            name,
		TotalCount:      1,
		MaxPerNodeCount: 1,
		Factory:         factory,
	})
}

// DeployNodeSingleton deploys one instance of the service on every
// eligible server node. Joining nodes get an instance automatically.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Deployment name, also used as the factory type name
//   - factory: Service constructor, registered locally (may be nil if the
//     type is already registered)
//
// Returns:
//   - *Future: Resolves when per-node targets are issued
//   - error: Deployment error (see Deploy)
func (g *Grid) DeployNodeSingleton(ctx context.Context, name string, factory types.ServiceFactory) (*types.Future, error) {
	return g.Deploy(ctx, types.ServiceConfiguration{
		Name:            name,
		MaxPerNodeCount: 1,
		Factory:         factory,
	})
}

// DeployKeyAffinitySingleton deploys one instance of the service on the
// node owning the given cache key. The instance follows key ownership
// across topology changes.
//
// While the key has no owner (for example the affinity resolver does not
// know the cache yet) the deployment stays pending with zero instances; it
// activates as soon as ownership resolves. A later topology change rechecks
// ownership, so the future never blocks on the key resolving.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Deployment name, also used as the factory type name
//   - factory: Service constructor, registered locally (may be nil if the
//     type is already registered)
//   - cacheName: Cache the key belongs to
//   - key: Affinity key whose owner hosts the instance
//
// Returns:
//   - *Future: Resolves once placement against the key's owner is issued
//   - error: Deployment error (see Deploy)
func (g *Grid) DeployKeyAffinitySingleton(ctx context.Context, name string, factory types.ServiceFactory, cacheName, key string) (*types.Future, error) {
	return g.Deploy(ctx, types.ServiceConfiguration{
		Name:              name,
		AffinityCacheName: cacheName,
		AffinityKey:       key,
		Factory:           factory,
	})
}

// DeployMultiple deploys up to totalCount instances cluster-wide with at
// most maxPerNodeCount per node. Zero means unbounded for either limit;
// at least one must be positive.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Deployment name, also used as the factory type name
//   - factory: Service constructor, registered locally (may be nil if the
//     type is already registered)
//   - totalCount: Cluster-wide instance cap (0 = unbounded)
//   - maxPerNodeCount: Per-node instance cap (0 = unbounded)
//
// Returns:
//   - *Future: Resolves when the spread targets are issued
//   - error: Deployment error (see Deploy)
func (g *Grid) DeployMultiple(ctx context.Context, name string, factory types.ServiceFactory, totalCount, maxPerNodeCount int) (*types.Future, error) {
	return g.Deploy(ctx, types.ServiceConfiguration{
		Name:            name,
		TotalCount:      totalCount,
		MaxPerNodeCount: maxPerNodeCount,
		Factory:         factory,
	})
}

// Undeploy removes a deployment and cancels its instances cluster-wide.
//
// Cancellation acknowledgments are awaited up to Config.UndeployTimeout;
// unreachable nodes are skipped after the timeout. Undeploying an unknown
// name is not an error. The deployment's future, if still pending, fails
// with ErrServiceUnavailable.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Deployment name
//
// Returns:
//   - error: ErrNotCoordinator when no coordinator is known, or a
//     transport error
func (g *Grid) Undeploy(ctx context.Context, name string) error {
	if g.coord.Active() {
		return g.coord.Undeploy(ctx, name)
	}

	return g.forwardUndeploy(ctx, wire.UndeployRequest{Name: name})
}

// UndeployAll removes every deployment in the cluster.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - error: ErrNotCoordinator when no coordinator is known, or a
//     transport error
func (g *Grid) UndeployAll(ctx context.Context) error {
	if g.coord.Active() {
		return g.coord.UndeployAll(ctx)
	}

	return g.forwardUndeploy(ctx, wire.UndeployRequest{All: true})
}

func (g *Grid) forwardUndeploy(ctx context.Context, req wire.UndeployRequest) error {
	coordNode := g.coordinatorNode()
	if coordNode == "" {
		return fmt.Errorf("%w: no coordinator elected yet", types.ErrNotCoordinator)
	}

	body, err := wire.Encode(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.DeployForwardTimeout)
	defer cancel()

	_, err = g.bus.Request(ctx, coordNode, wire.SubjectUndeploy, body)

	return err
}

// ServiceDescriptors returns the cluster-wide deployment overview, sorted
// by service name. Non-coordinator nodes fetch it from the coordinator.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []ServiceDescriptor: One descriptor per registered deployment
//   - error: ErrNotCoordinator when no coordinator is known, or a
//     transport error
func (g *Grid) ServiceDescriptors(ctx context.Context) ([]types.ServiceDescriptor, error) {
	if g.coord.Active() {
		return g.coord.Descriptors(), nil
	}

	coordNode := g.coordinatorNode()
	if coordNode == "" {
		return nil, fmt.Errorf("%w: no coordinator elected yet", types.ErrNotCoordinator)
	}

	data, err := g.bus.Request(ctx, coordNode, wire.SubjectDescriptors, nil)
	if err != nil {
		return nil, err
	}

	var resp wire.DescriptorsResponse
	if err := wire.Decode(data, &resp); err != nil {
		return nil, err
	}

	return resp.Descriptors, nil
}

// Service returns a live locally deployed instance of the named service.
//
// This bypasses proxying entirely; use it when the caller knows an
// instance runs on this node, for example inside a node singleton.
//
// Returns:
//   - Service: A live local instance
//   - bool: False when no live instance exists on this node
func (g *Grid) Service(name string) (types.Service, bool) {
	return g.run.Service(name)
}

// ServiceProxy returns a call handle for the named service.
//
// The proxy prefers a local instance, otherwise resolves a hosting node
// through the coordinator and sticks to it until it fails. While no
// instance is live the first call waits up to Config.ProxyWaitTimeout for
// one to appear before failing with ErrServiceUnavailable.
//
// Parameters:
//   - name: Deployment name
//
// Returns:
//   - *ServiceProxy: Reusable, concurrency-safe call handle
func (g *Grid) ServiceProxy(name string) *ServiceProxy {
	return &ServiceProxy{name: name, router: g.router}
}

// Reconcile republishes every assignment at the current topology. Targets
// are absolute per-node counts, so reconciliation is always safe; use it
// after suspected transport hiccups.
//
// Returns:
//   - error: ErrNotCoordinator when this node is not the coordinator
func (g *Grid) Reconcile(ctx context.Context) error {
	if !g.coord.Active() {
		return types.ErrNotCoordinator
	}

	g.coord.Reconcile(ctx)

	return nil
}

// IsCoordinator reports whether this node currently holds the coordinator
// role.
func (g *Grid) IsCoordinator() bool {
	return g.coord.Active()
}

// LocalNode returns this node's descriptor.
func (g *Grid) LocalNode() types.NodeDescriptor {
	return types.NodeDescriptor{
		ID:     g.cfg.NodeID,
		Client: g.cfg.Client,
		Labels: g.cfg.Labels,
	}
}

// coordinatorNode returns the last known coordinator node ID, or empty.
func (g *Grid) coordinatorNode() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.coordNode
}

// lookupFactory resolves a factory from the local catalog.
func (g *Grid) lookupFactory(typeName string) (types.ServiceFactory, bool) {
	g.factoryMu.RLock()
	defer g.factoryMu.RUnlock()

	factory, ok := g.factories[typeName]

	return factory, ok
}

// sendReport pushes this node's cumulative counts for a service to the
// coordinator. Invoked by the instance manager after every target apply.
func (g *Grid) sendReport(name string, counts types.InstanceCounts, applyErr error) {
	coordNode := g.coordinatorNode()
	if coordNode == "" {
		g.logger.Debug("skipping count report, no coordinator known", "service", name)

		return
	}

	report := wire.Report{
		Node:      g.cfg.NodeID,
		Name:      name,
		Started:   counts.Started,
		Cancelled: counts.Cancelled,
	}
	if applyErr != nil {
		report.Error = applyErr.Error()
	}

	body, err := wire.Encode(report)
	if err != nil {
		g.logger.Error("failed to encode count report", "service", name, "error", err)

		return
	}

	g.mu.RLock()
	ctx := g.ctx
	g.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := g.bus.Send(ctx, coordNode, wire.SubjectReport, body); err != nil {
		g.logger.Warn("failed to send count report", "service", name, "coordinator", coordNode, "error", err)
	}
}

// resolveHost finds a node hosting a live instance of the service, asking
// the coordinator when this node does not hold the role itself.
func (g *Grid) resolveHost(ctx context.Context, name string) (string, error) {
	if g.coord.Active() {
		return g.coord.Resolve(name, g.cfg.NodeID)
	}

	coordNode := g.coordinatorNode()
	if coordNode == "" {
		return "", fmt.Errorf("%w: no coordinator elected yet", types.ErrServiceUnavailable)
	}

	body, err := wire.Encode(wire.ResolveRequest{Name: name, Requester: g.cfg.NodeID})
	if err != nil {
		return "", err
	}

	data, err := g.bus.Request(ctx, coordNode, wire.SubjectResolve, body)
	if err != nil {
		return "", err
	}

	var resp wire.ResolveResponse
	if err := wire.Decode(data, &resp); err != nil {
		return "", err
	}

	return resp.Node, nil
}

// subscribe registers all bus handlers for this node.
func (g *Grid) subscribe() error {
	handlers := map[string]types.BusHandler{
		wire.SubjectTarget:      g.handleTarget,
		wire.SubjectReport:      g.handleReport,
		wire.SubjectDeploy:      g.handleDeploy,
		wire.SubjectUndeploy:    g.handleUndeploy,
		wire.SubjectResolve:     g.handleResolve,
		wire.SubjectDescriptors: g.handleDescriptors,
		wire.SubjectInvoke:      g.handleInvoke,
	}

	for subject, fn := range handlers {
		if err := g.bus.Handle(subject, fn); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", subject, err)
		}
	}

	return nil
}

// handleTarget applies a per-node instance target from the coordinator.
// The reply carries the resulting counts so undeploys can await
// acknowledgment.
func (g *Grid) handleTarget(ctx context.Context, _ string, data []byte) ([]byte, error) {
	var target wire.Target
	if err := wire.Decode(data, &target); err != nil {
		return nil, err
	}

	if target.Coordinator != "" {
		g.mu.Lock()
		g.coordNode = target.Coordinator
		g.mu.Unlock()
	}

	counts, err := g.run.ApplyTarget(ctx, target.Name, target.Type, target.Count)
	if err != nil {
		g.logger.Warn("failed to apply instance target",
			"service", target.Name, "target", target.Count, "error", err)

		return nil, err
	}

	return wire.Encode(wire.Report{
		Node:      g.cfg.NodeID,
		Name:      target.Name,
		Started:   counts.Started,
		Cancelled: counts.Cancelled,
	})
}

// handleReport feeds a node's count report into the coordinator.
func (g *Grid) handleReport(ctx context.Context, _ string, data []byte) ([]byte, error) {
	var report wire.Report
	if err := wire.Decode(data, &report); err != nil {
		return nil, err
	}

	if !g.coord.Active() {
		return nil, nil
	}

	g.coord.HandleReport(ctx, report)

	return nil, nil
}

// handleDeploy registers forwarded deployments and waits for them to
// reach their targets, bounded by the requester's context.
func (g *Grid) handleDeploy(ctx context.Context, from string, data []byte) ([]byte, error) {
	var req wire.DeployRequest
	if err := wire.Decode(data, &req); err != nil {
		return nil, err
	}

	if !g.coord.Active() {
		return nil, types.ErrNotCoordinator
	}

	g.logger.Debug("handling forwarded deploy", "from", from, "configs", len(req.Configs))

	futures := make([]*types.Future, 0, len(req.Configs))
	for _, cfg := range req.Configs {
		future, err := g.coord.Deploy(ctx, cfg)
		if err != nil {
			return nil, err
		}
		futures = append(futures, future)
	}

	for _, future := range futures {
		if err := future.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

// handleUndeploy removes forwarded deployments.
func (g *Grid) handleUndeploy(ctx context.Context, _ string, data []byte) ([]byte, error) {
	var req wire.UndeployRequest
	if err := wire.Decode(data, &req); err != nil {
		return nil, err
	}

	if !g.coord.Active() {
		return nil, types.ErrNotCoordinator
	}

	if req.All {
		return nil, g.coord.UndeployAll(ctx)
	}

	return nil, g.coord.Undeploy(ctx, req.Name)
}

// handleResolve answers service host lookups from proxying nodes.
func (g *Grid) handleResolve(_ context.Context, _ string, data []byte) ([]byte, error) {
	var req wire.ResolveRequest
	if err := wire.Decode(data, &req); err != nil {
		return nil, err
	}

	if !g.coord.Active() {
		return nil, types.ErrNotCoordinator
	}

	node, err := g.coord.Resolve(req.Name, req.Requester)
	if err != nil {
		return nil, err
	}

	return wire.Encode(wire.ResolveResponse{Node: node})
}

// handleDescriptors answers deployment overview requests.
func (g *Grid) handleDescriptors(_ context.Context, _ string, _ []byte) ([]byte, error) {
	if !g.coord.Active() {
		return nil, types.ErrNotCoordinator
	}

	return wire.Encode(wire.DescriptorsResponse{Descriptors: g.coord.Descriptors()})
}

// handleInvoke routes a proxied call to a live local instance.
func (g *Grid) handleInvoke(ctx context.Context, _ string, data []byte) ([]byte, error) {
	var req wire.InvokeRequest
	if err := wire.Decode(data, &req); err != nil {
		return nil, err
	}

	payload, err := g.run.Invoke(ctx, req.Name, req.Payload)
	if err != nil {
		return nil, err
	}

	return wire.Encode(wire.InvokeResponse{Payload: payload})
}

// watchLoop consumes topology snapshots until shutdown.
func (g *Grid) watchLoop(watch <-chan types.TopologySnapshot) {
	defer g.wg.Done()

	for snap := range watch {
		g.onTopology(g.ctx, snap)
	}
}

// onTopology reruns the election and recomputes assignments for a new
// snapshot. Snapshots at or below the last seen version are ignored.
func (g *Grid) onTopology(ctx context.Context, snap types.TopologySnapshot) {
	g.mu.Lock()
	if snap.Version <= g.topVersion {
		g.mu.Unlock()

		return
	}
	g.topVersion = snap.Version
	g.mu.Unlock()

	leader, isLeader, err := g.election.Campaign(ctx, g.cfg.NodeID, snap)
	if err != nil {
		g.logger.Error("coordinator election failed", "topologyVersion", snap.Version, "error", err)
		g.notifyError(ctx, fmt.Errorf("coordinator election failed: %w", err))

		return
	}

	g.mu.Lock()
	prevCoord := g.coordNode
	if leader != "" {
		g.coordNode = leader
	}
	g.mu.Unlock()

	wasActive := g.coord.Active()
	switch {
	case isLeader && !wasActive:
		g.logger.Info("assuming coordinator role", "topologyVersion", snap.Version)
		g.metrics.RecordCoordinatorChange(g.cfg.NodeID)
		g.notifyCoordinatorChanged(ctx, true)

		if err := g.coord.Activate(ctx, snap); err != nil {
			g.logger.Error("failed to activate coordinator", "error", err)
			g.notifyError(ctx, err)
		}
	case !isLeader && wasActive:
		g.logger.Info("relinquishing coordinator role", "coordinator", leader, "topologyVersion", snap.Version)
		g.coord.Deactivate()
		g.notifyCoordinatorChanged(ctx, false)
	case isLeader:
		g.coord.OnTopologyChange(ctx, snap)
	default:
		if leader != "" && leader != prevCoord {
			g.metrics.RecordCoordinatorChange(leader)
		}
	}

	// Instances may have moved; sticky proxy routes are stale.
	g.router.InvalidateAll()
}

func (g *Grid) notifyCoordinatorChanged(ctx context.Context, coordinatorRole bool) {
	if g.hooks.OnCoordinatorChanged == nil {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if err := g.hooks.OnCoordinatorChanged(ctx, coordinatorRole); err != nil {
			g.logger.Warn("coordinator change hook failed", "error", err)
		}
	}()
}

func (g *Grid) notifyError(ctx context.Context, err error) {
	if g.hooks.OnError == nil {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if hookErr := g.hooks.OnError(ctx, err); hookErr != nil {
			g.logger.Warn("error hook failed", "error", hookErr)
		}
	}()
}

// ServiceProxy is a reusable call handle for one deployed service.
//
// Obtain one with Grid.ServiceProxy. Calls prefer a local instance and
// otherwise route to a resolved hosting node, sticking to it until it
// becomes unreachable.
type ServiceProxy struct {
	name   string
	router *proxy.Router
}

// Call invokes the service with the given payload and returns its reply.
//
// The target service must implement Handler; services that do not accept
// calls fail with ErrServiceUnavailable.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - payload: Application-defined request payload
//
// Returns:
//   - []byte: Handler response payload
//   - error: ErrServiceUnavailable when no live instance can serve within
//     the proxy wait budget, or the handler's error
func (p *ServiceProxy) Call(ctx context.Context, payload []byte) ([]byte, error) {
	return p.router.Call(ctx, p.name, payload)
}

// Name returns the deployment name this proxy targets.
func (p *ServiceProxy) Name() string {
	return p.name
}
