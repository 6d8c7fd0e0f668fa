// Package types provides core type definitions and interfaces for the Ignite
// service grid.
//
// This package contains shared types that are used across multiple packages in
// the module. By keeping these types in a separate package, we avoid import
// cycles between the main ignite package and its internal implementations.
//
// Key types:
//   - Service: Pluggable unit of service logic with lifecycle hooks
//   - ServiceConfiguration: Declarative deployment configuration
//   - TopologySnapshot: Versioned, immutable view of the cluster node set
//   - Assignment: Target per-node instance counts for one deployment
//   - ServiceDescriptor: Observed deployment state exposed to callers
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
