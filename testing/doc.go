// Package testing provides test utilities for the Ignite service grid library.
//
// This package offers helpers for setting up test environments: embedded
// NATS servers for integration testing, an in-process message bus for
// multi-node tests without any transport, and counting service
// implementations for asserting instance lifecycles. It follows Go's
// convention of providing testing utilities in a dedicated package
// (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewLocalNetwork: In-process bus connecting simulated nodes
//   - NewCountingService: Service implementation that records lifecycle calls
//
// Example usage:
//
//	import (
//	    "testing"
//	    ignitetest "github.com/SavtechSolutions/ignite/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := ignitetest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
