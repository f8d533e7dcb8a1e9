package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/newsmaker-api/internal/events"
)

func TestBus_PublishSubscribe(t *testing.T) {
	_, client := newTestClient(t)
	bus, err := NewBus(client, "", testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	sent, err := events.NewCompleted("task-1", "acme", "chat-9", events.CompletedPayload{
		Summary: "launch",
		Score:   80,
		Verdict: "Отвечать",
		Excerpt: "post",
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, sent))

	select {
	case got := <-ch:
		require.NotNil(t, got)
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, events.KindTaskCompleted, got.Kind)
		assert.Equal(t, "chat-9", got.Destination)

		payload, err := got.Completed()
		require.NoError(t, err)
		assert.Equal(t, 80, payload.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel closes after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBus_DefaultChannel(t *testing.T) {
	_, client := newTestClient(t)
	bus, err := NewBus(client, "", testLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel, bus.channel)

	_, err = NewBus(nil, "", testLogger())
	assert.ErrorIs(t, err, ErrNilClient)
}
