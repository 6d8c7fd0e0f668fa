package ignite

// Option configures a Grid with optional dependencies.
type Option func(*gridOptions)

// gridOptions holds optional Grid configuration.
type gridOptions struct {
	electionAgent ElectionAgent
	resolver      AffinityResolver
	store         DeploymentStore
	hooks         *Hooks
	metrics       MetricsCollector
	logger        Logger
}

// WithElectionAgent sets a custom coordinator election agent.
//
// The default agent elects the server node with the lowest ID, which
// needs no extra infrastructure. Use election.NewNATSLease for lease-based
// election over a NATS KV bucket.
//
// Parameters:
//   - agent: ElectionAgent implementation
//
// Returns:
//   - Option: Functional option for New
func WithElectionAgent(agent ElectionAgent) Option {
	return func(o *gridOptions) {
		o.electionAgent = agent
	}
}

// WithAffinityResolver sets the resolver used for key-affinity
// deployments.
//
// The default is a consistent-hash ring over the server nodes of each
// snapshot. Without affinity deployments the resolver is never consulted.
//
// Parameters:
//   - resolver: AffinityResolver implementation
//
// Returns:
//   - Option: Functional option for New
func WithAffinityResolver(resolver AffinityResolver) Option {
	return func(o *gridOptions) {
		o.resolver = resolver
	}
}

// WithDeploymentStore persists deployment configurations so a failed-over
// coordinator can rebuild the registry.
//
// Parameters:
//   - store: Deployment store (e.g. NewKVDeploymentStore over JetStream KV)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	kv, _ := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: "ignite-deployments"})
//	grid, _ := ignite.New(&cfg, bus, feed, ignite.WithDeploymentStore(ignite.NewKVDeploymentStore(kv)))
func WithDeploymentStore(store DeploymentStore) Option {
	return func(o *gridOptions) {
		o.store = store
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	hooks := &ignite.Hooks{
//	    OnDeploymentChanged: func(ctx context.Context, desc ignite.ServiceDescriptor) error {
//	        return handleChange(desc)
//	    },
//	}
//	grid, _ := ignite.New(&cfg, bus, feed, ignite.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *gridOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	collector := ignite.NewPrometheusMetrics(prometheus.DefaultRegisterer, "ignite")
//	grid, _ := ignite.New(&cfg, bus, feed, ignite.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *gridOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	grid, _ := ignite.New(&cfg, bus, feed, ignite.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *gridOptions) {
		o.logger = logger
	}
}
