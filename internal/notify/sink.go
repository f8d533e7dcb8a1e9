package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/newsmaker-api/internal/events"
)

var (
	// ErrUnknownKind is returned by Format for event kinds it cannot render.
	ErrUnknownKind = errors.New("unknown event kind")

	// ErrNilSubscriber is returned by NewFanout without a subscriber.
	ErrNilSubscriber = errors.New("subscriber cannot be nil")

	// ErrNoSinks is returned by NewFanout without sinks.
	ErrNoSinks = errors.New("at least one sink is required")
)

// Sink delivers a rendered message to a destination.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Accepts reports whether the sink handles the event.
	Accepts(e *events.Event) bool

	// Deliver sends message. Errors are not retried.
	Deliver(ctx context.Context, destination, message string) error
}

// LogSink writes every event as a structured log line. It is used when no
// chat integration is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "log_sink")}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Accepts implements Sink.
func (s *LogSink) Accepts(*events.Event) bool { return true }

// Deliver implements Sink.
func (s *LogSink) Deliver(ctx context.Context, destination, message string) error {
	s.logger.InfoContext(ctx, "notification",
		"destination", destination,
		"message", message)
	return nil
}
