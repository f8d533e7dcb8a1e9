package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/newsmaker-api/internal/events"
	"github.com/phrazzld/newsmaker-api/internal/redact"
)

// Delivery outcomes reported to the Recorder.
const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeDropped   = "dropped"
)

// Recorder receives delivery metrics. Implemented by *metrics.Metrics.
type Recorder interface {
	ObserveDelivery(sink, outcome string)
}

// Fanout drains one Subscriber and delivers each event to every accepting sink.
type Fanout struct {
	subscriber events.Subscriber
	sinks      []Sink
	formatter  Formatter
	metrics    Recorder
	logger     *slog.Logger
}

// NewFanout creates a Fanout. metrics may be nil.
func NewFanout(
	subscriber events.Subscriber,
	formatter Formatter,
	sinks []Sink,
	metrics Recorder,
	logger *slog.Logger,
) (*Fanout, error) {
	if subscriber == nil {
		return nil, ErrNilSubscriber
	}
	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		subscriber: subscriber,
		sinks:      append([]Sink(nil), sinks...),
		formatter:  formatter,
		metrics:    metrics,
		logger:     logger.With("component", "fanout"),
	}, nil
}

// Run consumes events until ctx is done or the subscription ends. Events are
// handled one at a time in arrival order.
func (f *Fanout) Run(ctx context.Context) error {
	ch, err := f.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	f.logger.InfoContext(ctx, "notification fanout started", "sinks", len(f.sinks))
	for {
		select {
		case <-ctx.Done():
			f.logger.InfoContext(ctx, "notification fanout stopped")
			return nil
		case event, ok := <-ch:
			if !ok {
				f.logger.InfoContext(ctx, "event subscription closed")
				return nil
			}
			f.Handle(ctx, event)
		}
	}
}

// Handle delivers a single event.
func (f *Fanout) Handle(ctx context.Context, event *events.Event) {
	log := f.logger.With(
		"event_id", event.ID,
		"kind", event.Kind,
		"task_id", event.TaskID,
		"tenant_id", event.TenantID)

	if event.Destination == "" {
		log.DebugContext(ctx, "event has no destination, dropping")
		for _, s := range f.sinks {
			if s.Accepts(event) {
				f.metrics.ObserveDelivery(s.Name(), outcomeDropped)
			}
		}
		return
	}

	message, err := f.formatter.Format(event)
	if err != nil {
		log.WarnContext(ctx, "cannot format event", "error", err)
		return
	}

	for _, s := range f.sinks {
		if !s.Accepts(event) {
			continue
		}
		if err := s.Deliver(ctx, event.Destination, message); err != nil {
			f.metrics.ObserveDelivery(s.Name(), outcomeFailed)
			log.WarnContext(ctx, "notification delivery failed",
				"sink", s.Name(),
				"error", redact.Error(err))
			continue
		}
		f.metrics.ObserveDelivery(s.Name(), outcomeDelivered)
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveDelivery(string, string) {}
