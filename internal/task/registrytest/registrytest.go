// Package registrytest holds a behavioural test suite that every task.Registry
// implementation runs against itself.
package registrytest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/newsmaker-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh registry for one subtest. Advance moves the
// registry's notion of time forward so retention can be exercised.
type Factory func(t *testing.T, cfg task.RegistryConfig) (reg task.Registry, advance func(time.Duration))

// Run executes the suite.
func Run(t *testing.T, newRegistry Factory) {
	cfg := task.RegistryConfig{AdmissionCeiling: 3, TTL: time.Hour}
	ctx := context.Background()

	t.Run("submit records pending task", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		id, err := reg.Submit(ctx, "t1")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "t1", got.TenantID)
		assert.Equal(t, task.StatePending, got.State)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Nil(t, got.Result)

		count, err := reg.ActiveCount(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("submit rejects empty tenant", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)
		_, err := reg.Submit(ctx, "")
		assert.ErrorIs(t, err, task.ErrEmptyTenant)
	})

	t.Run("fourth submission is denied", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		for i := 0; i < 3; i++ {
			_, err := reg.Submit(ctx, "t1")
			require.NoError(t, err)
		}
		_, err := reg.Submit(ctx, "t1")
		assert.ErrorIs(t, err, task.ErrAdmissionDenied)

		count, err := reg.ActiveCount(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		// Other tenants are unaffected
		_, err = reg.Submit(ctx, "t2")
		assert.NoError(t, err)
	})

	t.Run("concurrent submissions never exceed ceiling", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
			denied   int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := reg.Submit(ctx, "busy")
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					admitted++
				} else {
					assert.ErrorIs(t, err, task.ErrAdmissionDenied)
					denied++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, admitted)
		assert.Equal(t, 17, denied)
		count, err := reg.ActiveCount(ctx, "busy")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("terminal transition frees admission slot", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		ids := make([]string, 3)
		for i := range ids {
			id, err := reg.Submit(ctx, "t1")
			require.NoError(t, err)
			ids[i] = id
		}

		require.NoError(t, reg.Transition(ctx, ids[0], task.StateProcessing, nil, ""))
		count, _ := reg.ActiveCount(ctx, "t1")
		assert.Equal(t, 3, count, "processing is still non-terminal")

		result := json.RawMessage(`{"ok":true}`)
		require.NoError(t, reg.Transition(ctx, ids[0], task.StateReady, result, ""))
		count, _ = reg.ActiveCount(ctx, "t1")
		assert.Equal(t, 2, count)

		got, err := reg.Get(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, task.StateReady, got.State)
		assert.JSONEq(t, `{"ok":true}`, string(got.Result))

		_, err = reg.Submit(ctx, "t1")
		assert.NoError(t, err)
	})

	t.Run("pending can fail directly", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		id, err := reg.Submit(ctx, "t1")
		require.NoError(t, err)
		require.NoError(t, reg.Transition(ctx, id, task.StateError, nil, "task queue is full"))

		got, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, task.StateError, got.State)
		assert.Equal(t, "task queue is full", got.Error)

		count, _ := reg.ActiveCount(ctx, "t1")
		assert.Equal(t, 0, count)
	})

	t.Run("terminal state is final", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		id, err := reg.Submit(ctx, "t1")
		require.NoError(t, err)
		require.NoError(t, reg.Transition(ctx, id, task.StateProcessing, nil, ""))
		require.NoError(t, reg.Transition(ctx, id, task.StateError, nil, "boom"))

		// Both calls are no-ops returning nil
		assert.NoError(t, reg.Transition(ctx, id, task.StateReady, json.RawMessage(`{}`), ""))
		assert.NoError(t, reg.Transition(ctx, id, task.StateProcessing, nil, ""))

		got, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, task.StateError, got.State)
		assert.Equal(t, "boom", got.Error)
		assert.Nil(t, got.Result)
	})

	t.Run("skipping processing is rejected", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		id, err := reg.Submit(ctx, "t1")
		require.NoError(t, err)
		assert.NoError(t, reg.Transition(ctx, id, task.StateReady, nil, ""))

		got, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, task.StatePending, got.State)
	})

	t.Run("unknown task", func(t *testing.T) {
		reg, _ := newRegistry(t, cfg)

		_, err := reg.Get(ctx, "missing")
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
		assert.NoError(t, reg.Transition(ctx, "missing", task.StateReady, nil, ""))
	})

	t.Run("records expire after retention window", func(t *testing.T) {
		reg, advance := newRegistry(t, cfg)

		id, err := reg.Submit(ctx, "t1")
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err := reg.Submit(ctx, "t1")
			require.NoError(t, err)
		}

		advance(cfg.TTL + time.Second)

		_, err = reg.Get(ctx, id)
		assert.ErrorIs(t, err, task.ErrTaskNotFound)

		// Transition on an expired task is a silent no-op
		assert.NoError(t, reg.Transition(ctx, id, task.StateError, nil, "late"))

		// Expired members no longer hold admission slots
		count, err := reg.ActiveCount(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		_, err = reg.Submit(ctx, "t1")
		assert.NoError(t, err)
	})
}
