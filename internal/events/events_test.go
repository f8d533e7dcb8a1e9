package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventConstructors(t *testing.T) {
	t.Parallel()

	t.Run("completed", func(t *testing.T) {
		ev, err := NewCompleted("task-1", "tenant-1", "chat-9", CompletedPayload{
			Summary: "s", Score: 80, Verdict: "publish", Excerpt: "e",
		})
		require.NoError(t, err)
		assert.Equal(t, KindTaskCompleted, ev.Kind)
		assert.Equal(t, "task-1", ev.TaskID)
		assert.Equal(t, "tenant-1", ev.TenantID)
		assert.Equal(t, "chat-9", ev.Destination)
		assert.False(t, ev.CreatedAt.IsZero())

		p, err := ev.Completed()
		require.NoError(t, err)
		assert.Equal(t, 80, p.Score)
		assert.Equal(t, "publish", p.Verdict)

		_, err = ev.Failure()
		assert.ErrorIs(t, err, ErrPayloadKind)
	})

	t.Run("error", func(t *testing.T) {
		ev, err := NewError("task-2", "tenant-1", "", "no content")
		require.NoError(t, err)
		p, err := ev.Failure()
		require.NoError(t, err)
		assert.Equal(t, "no content", p.Error)
		assert.JSONEq(t, `{"error":"no content"}`, string(ev.Payload))
	})

	t.Run("publish", func(t *testing.T) {
		ev, err := NewPublish("tenant-1", "chat-9", PublishPayload{Platform: "telegram", Content: "hi"})
		require.NoError(t, err)
		assert.Empty(t, ev.TaskID)
		p, err := ev.Published()
		require.NoError(t, err)
		assert.Equal(t, "telegram", p.Platform)
		assert.Equal(t, "hi", p.Content)
	})
}

func TestInMemoryBus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("delivers in publish order", func(t *testing.T) {
		bus := NewInMemoryBus(10, logger)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := bus.Subscribe(ctx)
		require.NoError(t, err)

		var published []*Event
		for i := 0; i < 3; i++ {
			ev, err := NewError("task", "tenant", "", "e")
			require.NoError(t, err)
			require.NoError(t, bus.Publish(ctx, ev))
			published = append(published, ev)
		}

		for _, want := range published {
			select {
			case got := <-ch:
				assert.Equal(t, want.ID, got.ID)
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for event")
			}
		}
	})

	t.Run("drops when full", func(t *testing.T) {
		bus := NewInMemoryBus(1, logger)
		ev, err := NewError("task", "tenant", "", "e")
		require.NoError(t, err)

		require.NoError(t, bus.Publish(context.Background(), ev))
		err = bus.Publish(context.Background(), ev)
		assert.ErrorIs(t, err, ErrBusFull)
		assert.Equal(t, 1, bus.Len())
	})

	t.Run("single subscriber", func(t *testing.T) {
		bus := NewInMemoryBus(1, logger)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, err := bus.Subscribe(ctx)
		require.NoError(t, err)
		_, err = bus.Subscribe(ctx)
		assert.ErrorIs(t, err, ErrAlreadyActive)
	})

	t.Run("close drains then ends subscription", func(t *testing.T) {
		bus := NewInMemoryBus(2, logger)
		ev, err := NewError("task", "tenant", "", "e")
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
		bus.Close()
		bus.Close()

		assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrBusClosed)

		ch, err := bus.Subscribe(context.Background())
		require.NoError(t, err)

		got, ok := <-ch
		require.True(t, ok)
		assert.Equal(t, ev.ID, got.ID)

		_, ok = <-ch
		assert.False(t, ok)
	})

	t.Run("subscription ends with context", func(t *testing.T) {
		bus := NewInMemoryBus(1, logger)
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := bus.Subscribe(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription did not close")
		}
	})
}
