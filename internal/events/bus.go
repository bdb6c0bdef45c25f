package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrBusClosed = errors.New("event bus is closed")

// Bus delivers events to every subscriber. Publishing is fire-and-forget;
// a slow subscriber loses events rather than blocking the publisher.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

const subscriberBuffer = 64

func stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

// LocalBus is an in-process bus used when no broker is configured, and
// in tests.
type LocalBus struct {
	mu          sync.Mutex
	subscribers []chan Event
	closed      bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	event = stamp(event)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			slog.WarnContext(ctx, "event dropped, subscriber buffer full",
				slog.String("action", event.Action))
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, ch)
	return ch, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
	return nil
}
