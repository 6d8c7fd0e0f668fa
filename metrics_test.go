package ignite_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/SavtechSolutions/ignite"
)

func TestNewPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := ignite.NewPrometheusMetrics(reg, "ignite_test")

	collector.RecordDeploy("orders")
	collector.RecordAssignment("orders", 1, 3)
	collector.RecordInstanceStarted("orders")
	collector.RecordProxyCall("orders", true)
	collector.RecordCoordinatorChange("node-01")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]struct{}, len(families))
	for _, mf := range families {
		names[mf.GetName()] = struct{}{}
	}
	require.Contains(t, names, "ignite_test_service_deploys_total")
	require.Contains(t, names, "ignite_test_service_target_instances")
	require.Contains(t, names, "ignite_test_coordinator_changes_total")
}
