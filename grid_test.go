package ignite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SavtechSolutions/ignite"
	"github.com/SavtechSolutions/ignite/affinity"
	ignitetest "github.com/SavtechSolutions/ignite/testing"
	"github.com/SavtechSolutions/ignite/topology"
)

const (
	waitTimeout  = 5 * time.Second
	pollInterval = 10 * time.Millisecond
)

// testCluster wires several grids over an in-process bus and a shared
// static topology feed. Node IDs order lexicographically, so the first
// server node holds the coordinator role by default.
type testCluster struct {
	t        *testing.T
	network  *ignitetest.LocalNetwork
	feed     *topology.Static
	grids    map[string]*ignite.Grid
	counters map[string]*ignitetest.ServiceCounter
}

func newTestCluster(t *testing.T, serverIDs []string, opts ...ignite.Option) *testCluster {
	t.Helper()

	network := ignitetest.NewLocalNetwork()
	t.Cleanup(network.Close)

	nodes := make([]ignite.NodeDescriptor, 0, len(serverIDs))
	for _, id := range serverIDs {
		nodes = append(nodes, ignite.NodeDescriptor{ID: id})
	}

	c := &testCluster{
		t:        t,
		network:  network,
		feed:     topology.NewStatic(nodes...),
		grids:    make(map[string]*ignite.Grid),
		counters: make(map[string]*ignitetest.ServiceCounter),
	}

	for _, id := range serverIDs {
		c.start(id, false, opts...)
	}

	return c
}

// start joins a node's bus and runs its grid. Every node registers the
// "worker" (counting) and "echo" factories.
func (c *testCluster) start(id string, client bool, opts ...ignite.Option) *ignite.Grid {
	c.t.Helper()

	bus := c.network.Join(id)
	cfg := ignite.Config{
		NodeID:               id,
		Client:               client,
		UndeployTimeout:      2 * time.Second,
		ProxyRetryInterval:   pollInterval,
		ProxyWaitTimeout:     2 * time.Second,
		DeployForwardTimeout: waitTimeout,
	}

	opts = append(opts, ignite.WithLogger(ignitetest.NewTestLogger(c.t)))
	grid, err := ignite.New(&cfg, bus, c.feed, opts...)
	require.NoError(c.t, err)

	counter := ignitetest.NewServiceCounter()
	grid.RegisterService("worker", ignitetest.NewCountingFactory(counter))
	grid.RegisterService("echo", ignitetest.NewEchoFactory(id))

	require.NoError(c.t, grid.Start(context.Background()))
	c.t.Cleanup(func() { _ = grid.Stop(context.Background()) })

	c.grids[id] = grid
	c.counters[id] = counter

	return grid
}

// join starts a new node and announces it on the topology feed.
func (c *testCluster) join(id string, client bool, opts ...ignite.Option) *ignite.Grid {
	c.t.Helper()

	grid := c.start(id, client, opts...)
	c.feed.AddNodes(ignite.NodeDescriptor{ID: id, Client: client})

	return grid
}

// crash drops a node from the bus and the topology and stops its grid, so
// its local instances cannot distort cluster-wide counter sums.
func (c *testCluster) crash(id string) {
	c.t.Helper()

	c.network.Leave(id)
	c.feed.RemoveNodes(id)
	_ = c.grids[id].Stop(context.Background())
}

func (c *testCluster) totalLive() int64 {
	var total int64
	for _, counter := range c.counters {
		total += counter.Live()
	}

	return total
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)

	return ctx
}

// memStore is an in-memory deployment store for failover tests.
type memStore struct {
	mu   sync.Mutex
	cfgs map[string]ignite.ServiceConfiguration
}

func newMemStore() *memStore {
	return &memStore{cfgs: make(map[string]ignite.ServiceConfiguration)}
}

func (s *memStore) Save(_ context.Context, cfg ignite.ServiceConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfgs[cfg.Name] = cfg

	return nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cfgs, name)

	return nil
}

func (s *memStore) List(_ context.Context) ([]ignite.ServiceConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ignite.ServiceConfiguration, 0, len(s.cfgs))
	for _, cfg := range s.cfgs {
		out = append(out, cfg)
	}

	return out, nil
}

func TestNewValidatesDependencies(t *testing.T) {
	network := ignitetest.NewLocalNetwork()
	t.Cleanup(network.Close)
	bus := network.Join("node-01")
	feed := topology.NewStatic(ignite.NodeDescriptor{ID: "node-01"})

	t.Run("requires bus", func(t *testing.T) {
		_, err := ignite.New(&ignite.Config{NodeID: "node-01"}, nil, feed)
		require.ErrorIs(t, err, ignite.ErrBusRequired)
	})

	t.Run("requires topology feed", func(t *testing.T) {
		_, err := ignite.New(&ignite.Config{NodeID: "node-01"}, bus, nil)
		require.ErrorIs(t, err, ignite.ErrTopologyFeedRequired)
	})

	t.Run("requires node ID", func(t *testing.T) {
		_, err := ignite.New(&ignite.Config{}, bus, feed)
		require.ErrorIs(t, err, ignite.ErrInvalidConfig)
	})

	t.Run("double start", func(t *testing.T) {
		grid, err := ignite.New(&ignite.Config{NodeID: "node-01"}, bus, feed)
		require.NoError(t, err)
		require.NoError(t, grid.Start(context.Background()))
		t.Cleanup(func() { _ = grid.Stop(context.Background()) })

		require.ErrorIs(t, grid.Start(context.Background()), ignite.ErrAlreadyStarted)
	})
}

func TestClusterSingletonRemainsSingleWhenNodeJoins(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	// Deploy from a non-coordinator node so the request is forwarded.
	future, err := c.grids["node-02"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "single",
		Type:            "worker",
		TotalCount:      1,
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	// The future resolves when the target is issued; the instance itself
	// appears shortly after on the lowest-ID node.
	require.Eventually(t, func() bool {
		return c.counters["node-01"].Live() == 1
	}, waitTimeout, pollInterval)
	require.EqualValues(t, 1, c.totalLive())

	c.join("node-04", false)

	// The singleton must not move or duplicate for a mere join.
	time.Sleep(200 * time.Millisecond)
	require.EqualValues(t, 1, c.totalLive())
	require.EqualValues(t, 0, c.counters["node-04"].Live())

	descs, err := c.grids["node-01"].ServiceDescriptors(ctx)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, "single", descs[0].Name)
	require.Equal(t, 1, descs[0].LiveCount())
}

func TestNodeSingletonDeploysToJoiningNode(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "pernode",
		Type:            "worker",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.totalLive() == 3
	}, waitTimeout, pollInterval)

	c.join("node-04", false)

	require.Eventually(t, func() bool {
		return c.counters["node-04"].Live() == 1
	}, waitTimeout, pollInterval, "joining node should receive an instance")
	require.EqualValues(t, 4, c.totalLive())
}

func TestClientNodeDeploysButHostsNothing(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	client := c.join("node-99", true)
	ctx := waitCtx(t)

	require.False(t, client.IsCoordinator())

	future, err := client.Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "pernode",
		Type:            "worker",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	require.Eventually(t, func() bool {
		return c.totalLive() == 2
	}, waitTimeout, pollInterval)
	require.EqualValues(t, 0, c.counters["node-99"].Live())
}

func TestClusterSingletonFailsOverWhenHostLeaves(t *testing.T) {
	store := newMemStore()
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"},
		ignite.WithDeploymentStore(store))
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "single",
		Type:            "worker",
		TotalCount:      1,
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.counters["node-01"].Live() == 1
	}, waitTimeout, pollInterval)

	// The host is also the coordinator; the next node takes over both.
	c.crash("node-01")

	require.Eventually(t, func() bool {
		return c.grids["node-02"].IsCoordinator() && c.counters["node-02"].Live() == 1
	}, waitTimeout, pollInterval, "singleton should restart on the new coordinator")

	_, ok := c.grids["node-02"].Service("single")
	require.True(t, ok)
}

func TestKeyAffinitySingletonFollowsKeyOwnership(t *testing.T) {
	resolver := affinity.NewStatic()
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"},
		ignite.WithAffinityResolver(resolver))
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:              "affine",
		Type:              "worker",
		AffinityCacheName: "orders",
		AffinityKey:       "order-42",
	})
	require.NoError(t, err)

	// No owner yet: the future still resolves (there is nothing to issue)
	// and the deployment idles with zero instances.
	require.NoError(t, future.Wait(ctx))
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 0, c.totalLive())

	resolver.Pin("orders", "order-42", "node-02")
	c.feed.SetNodes(
		ignite.NodeDescriptor{ID: "node-01"},
		ignite.NodeDescriptor{ID: "node-02"},
		ignite.NodeDescriptor{ID: "node-03"},
	)

	require.Eventually(t, func() bool {
		return c.counters["node-02"].Live() == 1
	}, waitTimeout, pollInterval, "instance should appear once the key has an owner")

	// Ownership moves; the instance follows on the next topology change.
	resolver.Pin("orders", "order-42", "node-03")
	c.feed.SetNodes(
		ignite.NodeDescriptor{ID: "node-01"},
		ignite.NodeDescriptor{ID: "node-02"},
		ignite.NodeDescriptor{ID: "node-03"},
	)

	require.Eventually(t, func() bool {
		return c.counters["node-03"].Live() == 1 && c.counters["node-02"].Live() == 0
	}, waitTimeout, pollInterval, "instance should follow key ownership")
}

func TestServiceProxyRoutesToHostingNode(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "echo",
		TotalCount:      1,
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	t.Run("remote call", func(t *testing.T) {
		proxy := c.grids["node-03"].ServiceProxy("echo")
		require.Equal(t, "echo", proxy.Name())

		resp, err := proxy.Call(ctx, []byte("ping"))
		require.NoError(t, err)
		require.Equal(t, "node-01:ping", string(resp))
	})

	t.Run("local call", func(t *testing.T) {
		resp, err := c.grids["node-01"].ServiceProxy("echo").Call(ctx, []byte("pong"))
		require.NoError(t, err)
		require.Equal(t, "node-01:pong", string(resp))
	})

	t.Run("unknown service", func(t *testing.T) {
		shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()

		_, err := c.grids["node-02"].ServiceProxy("nope").Call(shortCtx, []byte("x"))
		require.ErrorIs(t, err, ignite.ErrServiceUnavailable)
	})
}

func TestUndeployCancelsInstancesEverywhere(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "pernode",
		Type:            "worker",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.totalLive() == 3
	}, waitTimeout, pollInterval)

	// Undeploy from a non-coordinator node so the request is forwarded.
	require.NoError(t, c.grids["node-03"].Undeploy(ctx, "pernode"))

	require.Eventually(t, func() bool {
		return c.totalLive() == 0
	}, waitTimeout, pollInterval, "all instances should be cancelled")

	descs, err := c.grids["node-01"].ServiceDescriptors(ctx)
	require.NoError(t, err)
	require.Empty(t, descs)

	// Undeploying an unknown name is not an error.
	require.NoError(t, c.grids["node-01"].Undeploy(ctx, "pernode"))
}

func TestDeployDuplicateName(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	cfg := ignite.ServiceConfiguration{Name: "single", Type: "worker", TotalCount: 1, MaxPerNodeCount: 1}

	first, err := c.grids["node-01"].Deploy(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Wait(ctx))

	t.Run("equivalent redeploy is idempotent", func(t *testing.T) {
		again, err := c.grids["node-01"].Deploy(ctx, cfg)
		require.NoError(t, err)
		require.Same(t, first, again)
	})

	t.Run("conflicting redeploy fails", func(t *testing.T) {
		conflict := cfg
		conflict.TotalCount = 2

		_, err := c.grids["node-01"].Deploy(ctx, conflict)
		require.ErrorIs(t, err, ignite.ErrDuplicateName)
	})
}

func TestDeployRejectsForwardedFilter(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	_, err := c.grids["node-02"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "filtered",
		Type:            "worker",
		MaxPerNodeCount: 1,
		Filter:          func(n ignite.NodeDescriptor) bool { return n.ID != "node-01" },
	})
	require.ErrorIs(t, err, ignite.ErrConfiguration)

	// The coordinator itself can use custom filters.
	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "filtered",
		Type:            "worker",
		MaxPerNodeCount: 1,
		Filter:          func(n ignite.NodeDescriptor) bool { return n.ID != "node-01" },
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.counters["node-02"].Live() == 1
	}, waitTimeout, pollInterval)
	require.EqualValues(t, 0, c.counters["node-01"].Live())
}

func TestInitFailureOnOneNodeLeavesSiblingsRunning(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	// Only node-01 can build "special" instances; node-02's init fails.
	counter := ignitetest.NewServiceCounter()
	c.grids["node-01"].RegisterService("special", ignitetest.NewCountingFactory(counter))

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "special",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	// The failed node stays below target; the sibling instance runs and
	// the deployment stays registered.
	require.Eventually(t, func() bool {
		return counter.Live() == 1
	}, waitTimeout, pollInterval)

	descs, err := c.grids["node-01"].ServiceDescriptors(ctx)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, 1, descs[0].LiveCount())
}

func TestDeployMultipleSpreadsInstances(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "many",
		Type:            "worker",
		TotalCount:      4,
		MaxPerNodeCount: 2,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	require.Eventually(t, func() bool {
		return c.counters["node-01"].Live() == 2 && c.counters["node-02"].Live() == 2
	}, waitTimeout, pollInterval)
}

func TestKeyAffinityUsesDefaultRing(t *testing.T) {
	// No WithAffinityResolver: the built-in consistent-hash ring picks the
	// key's owner among the server nodes.
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].DeployKeyAffinitySingleton(ctx, "worker", nil, "orders", "order-42")
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	require.Eventually(t, func() bool {
		return c.totalLive() == 1
	}, waitTimeout, pollInterval, "ring owner should host the instance")

	descs, err := c.grids["node-01"].ServiceDescriptors(ctx)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, ignite.DeploymentActive, descs[0].State)
}

func TestJoinAbsorbsUnplacedInstances(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02", "node-03"})
	ctx := waitCtx(t)

	// Four instances capped at one per node only fit three nodes; the
	// remainder is legal under-provisioning until capacity appears.
	future, err := c.grids["node-01"].DeployMultiple(ctx, "worker", nil, 4, 1)
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	require.Eventually(t, func() bool {
		return c.totalLive() == 3
	}, waitTimeout, pollInterval)

	c.join("node-04", false)

	require.Eventually(t, func() bool {
		return c.counters["node-04"].Live() == 1 && c.totalLive() == 4
	}, waitTimeout, pollInterval, "joining node should absorb the unplaced instance")
}

func TestDeployOnStoppedGridFails(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	require.NoError(t, c.grids["node-02"].Stop(context.Background()))

	_, err := c.grids["node-02"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "late",
		Type:            "worker",
		TotalCount:      1,
		MaxPerNodeCount: 1,
	})
	require.ErrorIs(t, err, ignite.ErrNotStarted)
}

func TestReconcileRepublishesTargets(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "pernode",
		Type:            "worker",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.totalLive() == 2
	}, waitTimeout, pollInterval)

	require.NoError(t, c.grids["node-01"].Reconcile(ctx))
	require.ErrorIs(t, c.grids["node-02"].Reconcile(ctx), ignite.ErrNotCoordinator)

	// Targets are absolute, so republishing must not change anything.
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 2, c.totalLive())
}

func TestStopCancelsLocalInstances(t *testing.T) {
	c := newTestCluster(t, []string{"node-01", "node-02"})
	ctx := waitCtx(t)

	future, err := c.grids["node-01"].Deploy(ctx, ignite.ServiceConfiguration{
		Name:            "pernode",
		Type:            "worker",
		MaxPerNodeCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))
	require.Eventually(t, func() bool {
		return c.counters["node-02"].Live() == 1
	}, waitTimeout, pollInterval)

	require.NoError(t, c.grids["node-02"].Stop(context.Background()))
	require.EqualValues(t, 0, c.counters["node-02"].Live())
	require.EqualValues(t, 1, c.counters["node-02"].Cancels())

	require.ErrorIs(t, c.grids["node-02"].Stop(context.Background()), ignite.ErrNotStarted)
}
