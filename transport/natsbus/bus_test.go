package natsbus_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ignitetest "github.com/SavtechSolutions/ignite/testing"
	"github.com/SavtechSolutions/ignite/transport/natsbus"
	"github.com/SavtechSolutions/ignite/types"
)

func TestBusRequestReply(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)

	alpha := natsbus.New(nc, "node-alpha", natsbus.WithLogger(ignitetest.NewTestLogger(t)))
	defer func() { require.NoError(t, alpha.Close()) }()

	beta := natsbus.New(nc, "node-beta", natsbus.WithLogger(ignitetest.NewTestLogger(t)))
	defer func() { require.NoError(t, beta.Close()) }()

	err := beta.Handle("echo", func(_ context.Context, from string, data []byte) ([]byte, error) {
		return []byte(from + ":" + string(data)), nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := alpha.Request(ctx, "node-beta", "echo", []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "node-alpha:ping", string(resp))
}

func TestBusSentinelErrorsSurviveWire(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)

	alpha := natsbus.New(nc, "node-alpha")
	defer func() { require.NoError(t, alpha.Close()) }()

	beta := natsbus.New(nc, "node-beta")
	defer func() { require.NoError(t, beta.Close()) }()

	err := beta.Handle("deploy", func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return nil, fmt.Errorf("service orders: %w", types.ErrDuplicateName)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = alpha.Request(ctx, "node-beta", "deploy", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrDuplicateName)
	require.Contains(t, err.Error(), "service orders")
}

func TestBusSend(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)

	alpha := natsbus.New(nc, "node-alpha")
	defer func() { require.NoError(t, alpha.Close()) }()

	beta := natsbus.New(nc, "node-beta")
	defer func() { require.NoError(t, beta.Close()) }()

	received := make(chan string, 1)
	err := beta.Handle("notify", func(_ context.Context, from string, data []byte) ([]byte, error) {
		received <- from + ":" + string(data)

		return nil, nil
	})
	require.NoError(t, err)

	require.NoError(t, alpha.Send(context.Background(), "node-beta", "notify", []byte("hello")))

	select {
	case got := <-received:
		require.Equal(t, "node-alpha:hello", got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBusPrefixIsolation(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)

	gridA := natsbus.New(nc, "node-x", natsbus.WithPrefix("grid-a"))
	defer func() { require.NoError(t, gridA.Close()) }()

	gridB := natsbus.New(nc, "node-x", natsbus.WithPrefix("grid-b"))
	defer func() { require.NoError(t, gridB.Close()) }()

	err := gridB.Handle("call", func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return []byte("grid-b"), nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// grid-a has no handler on this subject, so the request must not
	// reach grid-b's handler.
	_, err = gridA.Request(ctx, "node-x", "call", nil)
	require.Error(t, err)
}
