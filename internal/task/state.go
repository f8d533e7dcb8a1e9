package task

// State represents the current lifecycle state of a task
type State string

// Possible task states. Pending is the only initial state; Ready and Error are terminal.
const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateError      State = "error"
)

// transitions lists the allowed next states for each non-terminal state.
var transitions = map[State][]State{
	StatePending:    {StateProcessing, StateError},
	StateProcessing: {StateReady, StateError},
}

// Valid reports whether s is one of the lifecycle states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateProcessing, StateReady, StateError:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted out of s.
func (s State) IsTerminal() bool {
	return s == StateReady || s == StateError
}

// CanTransition reports whether a task in state from may move to state to.
// Same-state moves and any move out of a terminal state are rejected.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
