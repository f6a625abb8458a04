package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	redisclient "github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/redis"
)

func newTestRedisBus(t *testing.T) *RedisEventBus {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redisclient.NewFromClient(redis.NewClient(&redis.Options{Addr: addr, DB: 15}))
	t.Cleanup(func() { _ = client.Close() })

	bus := NewRedisEventBus(client)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestRedisBus(t)
	channel := "test:sectors:" + time.Now().Format("150405.000000")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	event := entities.NewSectorEvent(entities.SectorEventTypeOutageEnded, "s1", "o1", time.Now().UTC())
	require.NoError(t, bus.Publish(ctx, channel, event))

	got := receive(t, ch)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, entities.SectorEventTypeOutageEnded, got.EventType)
	assert.Equal(t, "o1", got.OutageID)
}

func TestRedisEventBus_ResubscribeAfterLastLeaves(t *testing.T) {
	bus := newTestRedisBus(t)
	channel := "test:sectors:resub:" + time.Now().Format("150405.000000")

	ctx, cancel := context.WithCancel(context.Background())
	first, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		_, ok := <-first
		return !ok
	}, time.Second, 10*time.Millisecond)

	second, err := bus.Subscribe(context.Background(), channel)
	require.NoError(t, err)

	event := entities.NewSectorEvent(entities.SectorEventTypeSectorAdded, "s2", "", time.Now().UTC())
	require.NoError(t, bus.Publish(context.Background(), channel, event))
	assert.Equal(t, event.ID, receive(t, second).ID)
}

func TestRedisEventBus_Close(t *testing.T) {
	bus := newTestRedisBus(t)

	ch, err := bus.Subscribe(context.Background(), "test:sectors:close")
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.Error(t, bus.Publish(context.Background(), "test:sectors:close",
		entities.NewSectorEvent(entities.SectorEventTypeDataCleared, "", "", time.Now())))
}
