package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// TransitionCall records one call to MockRegistry.Transition.
type TransitionCall struct {
	ID     string
	State  State
	Result json.RawMessage
	ErrMsg string
}

// MockRegistry implements the Registry interface for testing.
// Each method delegates to its function field; the defaults forward to an
// in-memory registry so tests only override the behaviour they care about.
type MockRegistry struct {
	mutex       sync.Mutex
	transitions []TransitionCall

	SubmitFn      func(ctx context.Context, tenantID string) (string, error)
	TransitionFn  func(ctx context.Context, id string, to State, result json.RawMessage, errMsg string) error
	GetFn         func(ctx context.Context, id string) (*Task, error)
	ActiveCountFn func(ctx context.Context, tenantID string) (int, error)
}

// NewMockRegistry creates a new MockRegistry backed by a MemoryRegistry
func NewMockRegistry(config RegistryConfig) *MockRegistry {
	backing := NewMemoryRegistry(config, slog.New(slog.DiscardHandler))
	return &MockRegistry{
		SubmitFn:      backing.Submit,
		TransitionFn:  backing.Transition,
		GetFn:         backing.Get,
		ActiveCountFn: backing.ActiveCount,
	}
}

// Submit implements Registry
func (m *MockRegistry) Submit(ctx context.Context, tenantID string) (string, error) {
	return m.SubmitFn(ctx, tenantID)
}

// Transition implements Registry and records the call
func (m *MockRegistry) Transition(
	ctx context.Context,
	id string,
	to State,
	result json.RawMessage,
	errMsg string,
) error {
	m.mutex.Lock()
	m.transitions = append(m.transitions, TransitionCall{ID: id, State: to, Result: result, ErrMsg: errMsg})
	m.mutex.Unlock()
	return m.TransitionFn(ctx, id, to, result, errMsg)
}

// Get implements Registry
func (m *MockRegistry) Get(ctx context.Context, id string) (*Task, error) {
	return m.GetFn(ctx, id)
}

// ActiveCount implements Registry
func (m *MockRegistry) ActiveCount(ctx context.Context, tenantID string) (int, error) {
	return m.ActiveCountFn(ctx, tenantID)
}

// Transitions returns a copy of the recorded Transition calls
func (m *MockRegistry) Transitions() []TransitionCall {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]TransitionCall, len(m.transitions))
	copy(out, m.transitions)
	return out
}
