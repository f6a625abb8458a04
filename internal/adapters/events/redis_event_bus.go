package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	redisclient "github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/redis"
)

// RedisEventBus implements providers.EventBus over Redis Pub/Sub so that
// every API replica sharing the store sees the same sector events. Each
// channel with local subscribers holds one Redis subscription whose
// messages are relayed to them.
type RedisEventBus struct {
	client *redisclient.Client
	logger zerolog.Logger
	local  *fanout

	// mu orders subscription changes so a relay is never torn down while a
	// new subscriber depends on it
	mu     sync.Mutex
	relays map[string]*redis.PubSub
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client, opts ...Option) *RedisEventBus {
	o := buildOptions(opts)
	return &RedisEventBus{
		client: client,
		logger: o.logger,
		local:  newFanout(o.logger),
		relays: make(map[string]*redis.PubSub),
	}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish sends event to every replica subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.SectorEvent) error {
	if b.local.isClosed() {
		return errBusClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sector event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish sector event: %w", err)
	}

	b.logger.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Msg("Published sector event")
	return nil
}

// Subscribe registers a subscriber on channel until ctx is done. The first
// subscriber of a channel waits for Redis to confirm the subscription.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SectorEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, first, err := b.local.add(channel)
	if err != nil {
		return nil, err
	}

	if first {
		pubsub := b.client.Client().Subscribe(ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			b.local.remove(channel, ch)
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.relays[channel] = pubsub
		go b.relay(channel, pubsub)
		b.logger.Debug().Str("channel", channel).Msg("Subscribed to channel")
	}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.local.remove(channel, ch) {
			return
		}
		if err := b.stopRelay(channel); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to close idle subscription")
		}
	}()

	return ch, nil
}

// relay forwards messages until pubsub is closed
func (b *RedisEventBus) relay(channel string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var event entities.SectorEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed sector event")
			continue
		}
		if err := b.local.deliver(channel, &event); err != nil {
			return
		}
	}
}

// stopRelay closes the Redis subscription of channel. Callers hold mu.
func (b *RedisEventBus) stopRelay(channel string) error {
	pubsub, ok := b.relays[channel]
	if !ok {
		return nil
	}
	delete(b.relays, channel)
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	b.logger.Debug().Str("channel", channel).Msg("Closed subscription to channel")
	return nil
}

// Unsubscribe drops every subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.local.drop(channel)
	return b.stopRelay(channel)
}

// Close drops every subscriber and closes all Redis subscriptions
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.local.close()

	var errs []error
	for channel := range b.relays {
		if err := b.stopRelay(channel); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing event bus: %w", err)
	}
	return nil
}
