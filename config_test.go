package ignite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigSetDefaults(t *testing.T) {
	t.Run("fills zero fields", func(t *testing.T) {
		cfg := Config{NodeID: "node-01"}
		cfg.SetDefaults()

		require.Equal(t, DefaultUndeployTimeout, cfg.UndeployTimeout)
		require.Equal(t, DefaultProxyRetryInterval, cfg.ProxyRetryInterval)
		require.Equal(t, DefaultProxyWaitTimeout, cfg.ProxyWaitTimeout)
		require.Equal(t, DefaultDeployForwardTimeout, cfg.DeployForwardTimeout)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := Config{
			NodeID:          "node-01",
			UndeployTimeout: 3 * time.Second,
		}
		cfg.SetDefaults()

		require.Equal(t, 3*time.Second, cfg.UndeployTimeout)
		require.Equal(t, DefaultProxyWaitTimeout, cfg.ProxyWaitTimeout)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.NodeID = "node-01"
	require.NoError(t, cfg.Validate())
}
