package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"pdcp-tx/internal/stats"
	"pdcp-tx/pkg/types"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSink_PublishOnceEmitsOneMessagePerEntity(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "pdcp-telemetry")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	collector := stats.NewCollector()
	collector.Record("bearer-1", types.Metrics{SDUs: 3, PDUs: 3, TXNext: 7, DiscardMapDepth: 1})
	collector.Record("bearer-2", types.Metrics{SDUs: 9, PDUs: 8, TXNext: 20, DiscardMapDepth: 0})

	sink := NewRedisSink(client, collector, "pdcp-telemetry", time.Hour, nil)
	sink.publishOnce(ctx)

	seen := map[string]Snapshot{}
	for i := 0; i < 2; i++ {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)
		var snap Snapshot
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &snap))
		seen[snap.EntityID] = snap
	}

	require.Contains(t, seen, "bearer-1")
	require.Contains(t, seen, "bearer-2")
	require.Equal(t, uint32(7), seen["bearer-1"].TXNext)
	require.Equal(t, 1, seen["bearer-1"].DiscardMapDepth)
	require.Equal(t, uint32(20), seen["bearer-2"].TXNext)
}

func TestRedisSink_StartPublishesPeriodically(t *testing.T) {
	_, client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := client.Subscribe(ctx, "pdcp-telemetry-periodic")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	collector := stats.NewCollector()
	collector.Record("bearer-1", types.Metrics{SDUs: 1})

	sink := NewRedisSink(client, collector, "pdcp-telemetry-periodic", 10*time.Millisecond, nil)
	sink.Start(ctx)

	msgCh := sub.Channel()
	select {
	case <-msgCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for periodic telemetry publish")
	}

	cancel()
	sink.Wait()
}
