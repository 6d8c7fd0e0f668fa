// Package ignite provides a Go library for cluster-wide service deployment
// with coordinator-based placement and automatic redeployment.
//
// Ignite lets a cluster of nodes deploy named, long-running services with
// declarative instance counts: cluster singletons, per-node singletons,
// key-affinity singletons and bounded multi-instance deployments. A single
// elected coordinator computes placements and pushes per-node targets;
// each node converges its local instances toward the target and reports
// back. When nodes join or leave, deployments are recomputed and instances
// move automatically.
//
// # Quick Start
//
// Basic usage with a NATS transport:
//
//	import (
//	    "github.com/SavtechSolutions/ignite"
//	    "github.com/SavtechSolutions/ignite/topology"
//	    "github.com/SavtechSolutions/ignite/transport/natsbus"
//	)
//
//	cfg := ignite.Config{NodeID: "node-01"}
//
//	bus := natsbus.New(nc, cfg.NodeID)
//	feed := topology.NewPresence(kv, ignite.NodeDescriptor{ID: cfg.NodeID}, time.Second, logger)
//
//	grid, err := ignite.New(&cfg, bus, feed)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	grid.RegisterService("billing", func() ignite.Service { return newBilling() })
//
//	if err := grid.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer grid.Stop(context.Background())
//
//	future, err := grid.DeployClusterSingleton(ctx, "billing", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := future.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Key Features
//
//   - Cluster Singletons: Exactly one instance cluster-wide, failing over
//     to a surviving node when its host leaves
//   - Node Singletons: One instance on every eligible node, including
//     nodes that join later
//   - Key Affinity: Pin a singleton to the node owning a cache key,
//     following ownership across topology changes
//   - Service Proxies: Location-transparent calls with sticky routing,
//     local-instance preference and failover
//   - Idempotent Targets: Nodes receive absolute per-node counts, so
//     redelivery and reconciliation are always safe
//
// # Architecture
//
// A service instance progresses through a lifecycle on its hosting node:
//
//	Created → Initialized → Executing → Cancelled
//
// The coordinator (by default the lowest server node ID, optionally a
// NATS lease election) owns the deployment registry. It recomputes
// assignments on every topology change and completes deployment futures
// once targets are issued; instance startup feeds back through count
// reports into the descriptor view.
//
// # Advanced Usage
//
// Persistent deployments and a lease-based election:
//
//	import "github.com/SavtechSolutions/ignite/affinity"
//
//	hooks := &ignite.Hooks{
//	    OnDeploymentChanged: func(ctx context.Context, desc ignite.ServiceDescriptor) error {
//	        // React to instance count changes
//	        return nil
//	    },
//	}
//
//	grid, err := ignite.New(&cfg, bus, feed,
//	    ignite.WithDeploymentStore(ignite.NewKVDeploymentStore(kv)),
//	    ignite.WithAffinityResolver(affinity.NewRing()),
//	    ignite.WithHooks(hooks),
//	)
//
// See the examples/ directory for complete working examples.
package ignite
