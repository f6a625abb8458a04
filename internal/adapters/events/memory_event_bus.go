package events

import (
	"context"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
)

// MemoryEventBus fans events out to subscribers of the same process
type MemoryEventBus struct {
	local *fanout
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus(opts ...Option) *MemoryEventBus {
	o := buildOptions(opts)
	return &MemoryEventBus{local: newFanout(o.logger)}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers event to every current subscriber of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.SectorEvent) error {
	return b.local.deliver(channel, event)
}

// Subscribe registers a subscriber on channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SectorEvent, error) {
	ch, _, err := b.local.add(channel)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		b.local.remove(channel, ch)
	}()

	return ch, nil
}

// Unsubscribe drops every subscriber of channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.local.drop(channel)
	return nil
}

// Close drops every subscriber and rejects further use
func (b *MemoryEventBus) Close() error {
	b.local.close()
	return nil
}
