package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/newsmaker-api/internal/events"
)

// DefaultChannel is the pub/sub channel task events are published on.
const DefaultChannel = "task_updates"

// Bus carries events over Redis pub/sub. Delivery is at-most-once: events
// published while no subscriber is connected are lost.
type Bus struct {
	client  goredis.UniversalClient
	channel string
	logger  *slog.Logger
}

var (
	_ events.Publisher  = (*Bus)(nil)
	_ events.Subscriber = (*Bus)(nil)
)

// NewBus creates a Bus on channel, or DefaultChannel when empty.
func NewBus(client goredis.UniversalClient, channel string, logger *slog.Logger) (*Bus, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		client:  client,
		channel: channel,
		logger:  logger.With("component", "redis_bus", "channel", channel),
	}, nil
}

// Publish implements events.Publisher.
func (b *Bus) Publish(ctx context.Context, event *events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	receivers, err := b.client.Publish(ctx, b.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	b.logger.DebugContext(ctx, "event published",
		"event_id", event.ID,
		"kind", event.Kind,
		"task_id", event.TaskID,
		"receivers", receivers)
	return nil
}

// Subscribe implements events.Subscriber. The subscription is confirmed before
// Subscribe returns; the channel closes when ctx is done.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *events.Event, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	out := make(chan *events.Event)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event events.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.WarnContext(ctx, "dropping undecodable event", "error", err)
					continue
				}
				select {
				case out <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
