package topology_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ignitetest "github.com/SavtechSolutions/ignite/testing"
	"github.com/SavtechSolutions/ignite/topology"
	"github.com/SavtechSolutions/ignite/types"
)

func TestPresenceAnnounceAndDiscover(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)
	kv := ignitetest.CreateJetStreamKV(t, nc, "presence-discover", 30*time.Second)
	logger := ignitetest.NewTestLogger(t)
	ctx := context.Background()

	feedA := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-a"}, time.Second, logger)
	require.NoError(t, feedA.Start(ctx))
	defer func() { require.NoError(t, feedA.Stop(ctx)) }()

	feedB := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-b", Client: true}, time.Second, logger)
	require.NoError(t, feedB.Start(ctx))
	defer func() { require.NoError(t, feedB.Stop(ctx)) }()

	require.Eventually(t, func() bool {
		snap, err := feedA.Snapshot(ctx)

		return err == nil && snap.Contains("node-a") && snap.Contains("node-b")
	}, 5*time.Second, 20*time.Millisecond)

	snap, err := feedA.Snapshot(ctx)
	require.NoError(t, err)

	b, ok := snap.Node("node-b")
	require.True(t, ok)
	require.True(t, b.Client)
	require.Equal(t, 1, snap.ServerCount())
}

func TestPresenceWatchSeesDeparture(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)
	kv := ignitetest.CreateJetStreamKV(t, nc, "presence-departure", 30*time.Second)
	logger := ignitetest.NewTestLogger(t)
	ctx := context.Background()

	observer := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-a"}, time.Second, logger)
	require.NoError(t, observer.Start(ctx))
	defer func() { require.NoError(t, observer.Stop(ctx)) }()

	leaver := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-b"}, time.Second, logger)
	require.NoError(t, leaver.Start(ctx))

	require.Eventually(t, func() bool {
		snap, err := observer.Snapshot(ctx)

		return err == nil && snap.Contains("node-b")
	}, 5*time.Second, 20*time.Millisecond)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	updates, err := observer.Watch(watchCtx)
	require.NoError(t, err)

	// Stop deletes the presence key, so the departure is visible without
	// waiting for the TTL.
	require.NoError(t, leaver.Stop(ctx))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if !snap.Contains("node-b") {
				require.True(t, snap.Contains("node-a"))

				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for node departure")
		}
	}
}

func TestPresenceVersionMonotonic(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)
	kv := ignitetest.CreateJetStreamKV(t, nc, "presence-version", 30*time.Second)
	logger := ignitetest.NewTestLogger(t)
	ctx := context.Background()

	feed := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-a"}, time.Second, logger)
	require.NoError(t, feed.Start(ctx))
	defer func() { require.NoError(t, feed.Stop(ctx)) }()

	require.Eventually(t, func() bool {
		snap, err := feed.Snapshot(ctx)

		return err == nil && snap.Contains("node-a")
	}, 5*time.Second, 20*time.Millisecond)

	first, err := feed.Snapshot(ctx)
	require.NoError(t, err)

	peer := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-b"}, time.Second, logger)
	require.NoError(t, peer.Start(ctx))
	defer func() { require.NoError(t, peer.Stop(ctx)) }()

	require.Eventually(t, func() bool {
		snap, err := feed.Snapshot(ctx)

		return err == nil && snap.Contains("node-b")
	}, 5*time.Second, 20*time.Millisecond)

	second, err := feed.Snapshot(ctx)
	require.NoError(t, err)
	require.Greater(t, second.Version, first.Version)
}

func TestPresenceStartTwice(t *testing.T) {
	_, nc := ignitetest.StartEmbeddedNATS(t)
	kv := ignitetest.CreateJetStreamKV(t, nc, "presence-twice", 30*time.Second)
	logger := ignitetest.NewTestLogger(t)
	ctx := context.Background()

	feed := topology.NewPresence(kv, types.NodeDescriptor{ID: "node-a"}, time.Second, logger)
	require.NoError(t, feed.Start(ctx))
	require.ErrorIs(t, feed.Start(ctx), topology.ErrPresenceAlreadyStarted)
	require.NoError(t, feed.Stop(ctx))
}
