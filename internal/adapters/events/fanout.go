package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	apperrors "github.com/zatekoja/hospitalpowermonitor/pkg/errors"
)

const subscriberBuffer = 100

var errBusClosed = apperrors.NewInternalError("event bus is closed", nil)

// Option configures an event bus
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger used for delivery warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fanout tracks the in-process subscribers of each channel. Delivery never
// blocks: a subscriber whose buffer is full misses the event.
type fanout struct {
	mu       sync.RWMutex
	channels map[string]map[chan *entities.SectorEvent]struct{}
	closed   bool
	logger   zerolog.Logger
}

func newFanout(logger zerolog.Logger) *fanout {
	return &fanout{
		channels: make(map[string]map[chan *entities.SectorEvent]struct{}),
		logger:   logger,
	}
}

// add registers a subscriber. first reports whether channel had none before.
func (f *fanout) add(channel string) (ch chan *entities.SectorEvent, first bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, false, errBusClosed
	}
	subscribers := f.channels[channel]
	if subscribers == nil {
		subscribers = make(map[chan *entities.SectorEvent]struct{})
		f.channels[channel] = subscribers
	}
	ch = make(chan *entities.SectorEvent, subscriberBuffer)
	subscribers[ch] = struct{}{}
	return ch, len(subscribers) == 1, nil
}

// remove closes one subscriber. last reports whether channel is now empty.
func (f *fanout) remove(channel string, ch chan *entities.SectorEvent) (last bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscribers := f.channels[channel]
	if _, ok := subscribers[ch]; !ok {
		return false
	}
	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(f.channels, channel)
		return true
	}
	return false
}

func (f *fanout) deliver(channel string, event *entities.SectorEvent) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return errBusClosed
	}
	for subscriber := range f.channels[channel] {
		select {
		case subscriber <- event:
		default:
			f.logger.Warn().
				Str("channel", channel).
				Str("event_id", event.ID).
				Str("event_type", string(event.EventType)).
				Msg("Subscriber channel full, skipping event")
		}
	}
	return nil
}

func (f *fanout) drop(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for subscriber := range f.channels[channel] {
		close(subscriber)
	}
	delete(f.channels, channel)
}

func (f *fanout) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel, subscribers := range f.channels {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(f.channels, channel)
	}
	f.closed = true
}
