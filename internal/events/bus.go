package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Bus errors.
var (
	ErrBusFull       = errors.New("event bus is full")
	ErrBusClosed     = errors.New("event bus is closed")
	ErrAlreadyActive = errors.New("event bus already has a subscriber")
)

// InMemoryBus is a single FIFO channel implementing Publisher and Subscriber.
// Publish never blocks: when the buffer is full the event is dropped and
// ErrBusFull is returned. Only one subscriber may drain the bus.
type InMemoryBus struct {
	events     chan *Event
	mu         sync.Mutex
	closed     bool
	subscribed bool
	logger     *slog.Logger
}

// NewInMemoryBus creates a bus with the given buffer size.
func NewInMemoryBus(size int, logger *slog.Logger) *InMemoryBus {
	if size <= 0 {
		size = 1
	}
	return &InMemoryBus{
		events: make(chan *Event, size),
		logger: logger.With("component", "in_memory_bus"),
	}
}

// Publish implements Publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event *Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.events <- event:
		b.logger.DebugContext(ctx, "event published",
			"event_id", event.ID,
			"kind", event.Kind,
			"task_id", event.TaskID)
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrBusFull, cap(b.events))
	}
}

// Subscribe implements Subscriber. The returned channel yields events in
// publish order and is closed when ctx is done or Close is called.
func (b *InMemoryBus) Subscribe(ctx context.Context) (<-chan *Event, error) {
	b.mu.Lock()
	if b.subscribed {
		b.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	b.subscribed = true
	b.mu.Unlock()

	out := make(chan *Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-b.events:
				if !ok {
					return
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close stops accepting events. Events already buffered are still delivered.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

// Len returns the number of buffered events.
func (b *InMemoryBus) Len() int {
	return len(b.events)
}
