package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	all := []State{StatePending, StateProcessing, StateReady, StateError}
	allowed := map[[2]State]bool{
		{StatePending, StateProcessing}: true,
		{StatePending, StateError}:      true,
		{StateProcessing, StateReady}:   true,
		{StateProcessing, StateError}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]State{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateProcessing.IsTerminal())
	assert.True(t, StateReady.IsTerminal())
	assert.True(t, StateError.IsTerminal())
	assert.False(t, State("done").Valid())
}
