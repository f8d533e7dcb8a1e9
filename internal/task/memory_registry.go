package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	task      Task
	expiresAt time.Time
}

// MemoryRegistry is a mutex-guarded in-memory Registry.
// It is used in tests and when no Redis is configured.
type MemoryRegistry struct {
	mu     sync.Mutex
	tasks  map[string]*memoryEntry
	active map[string]map[string]struct{}
	config RegistryConfig
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry(config RegistryConfig, logger *slog.Logger) *MemoryRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryRegistry{
		tasks:  make(map[string]*memoryEntry),
		active: make(map[string]map[string]struct{}),
		config: config.Normalize(),
		logger: logger.With("component", "memory_registry"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *MemoryRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// lookup returns the live entry for id, deleting it when expired. Caller holds mu.
func (r *MemoryRegistry) lookup(id string) (*memoryEntry, bool) {
	entry, ok := r.tasks[id]
	if !ok {
		return nil, false
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.tasks, id)
		if set := r.active[entry.task.TenantID]; set != nil {
			delete(set, id)
		}
		return nil, false
	}
	return entry, true
}

// prune drops admission-set members whose task record is gone. Caller holds mu.
func (r *MemoryRegistry) prune(tenantID string) map[string]struct{} {
	set := r.active[tenantID]
	for id := range set {
		if _, ok := r.lookup(id); !ok {
			delete(set, id)
		}
	}
	return set
}

// Submit implements Registry.
func (r *MemoryRegistry) Submit(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", ErrEmptyTenant
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.prune(tenantID)
	if len(set) >= r.config.AdmissionCeiling {
		return "", fmt.Errorf("%w: %d active tasks", ErrAdmissionDenied, len(set))
	}
	if set == nil {
		set = make(map[string]struct{})
		r.active[tenantID] = set
	}

	now := r.now().UTC()
	id := r.newID()
	r.tasks[id] = &memoryEntry{
		task: Task{
			ID:        id,
			TenantID:  tenantID,
			State:     StatePending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		expiresAt: now.Add(r.config.TTL),
	}
	set[id] = struct{}{}

	r.logger.DebugContext(ctx, "task admitted",
		"task_id", id,
		"tenant_id", tenantID,
		"active", len(set))
	return id, nil
}

// Transition implements Registry.
func (r *MemoryRegistry) Transition(
	ctx context.Context,
	id string,
	to State,
	result json.RawMessage,
	errMsg string,
) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, to)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		r.logger.WarnContext(ctx, "transition on expired task ignored",
			"task_id", id,
			"state", to)
		return nil
	}

	from := entry.task.State
	if !CanTransition(from, to) {
		r.logger.WarnContext(ctx, "transition rejected",
			"task_id", id,
			"from", from,
			"to", to)
		return nil
	}

	entry.task.State = to
	entry.task.UpdatedAt = r.now().UTC()
	if result != nil {
		entry.task.Result = append(json.RawMessage(nil), result...)
	}
	if errMsg != "" {
		entry.task.Error = errMsg
	}

	if to.IsTerminal() {
		if set := r.active[entry.task.TenantID]; set != nil {
			delete(set, id)
		}
	}
	return nil
}

// Get implements Registry.
func (r *MemoryRegistry) Get(ctx context.Context, id string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	t := entry.task
	if t.Result != nil {
		t.Result = append(json.RawMessage(nil), t.Result...)
	}
	return &t, nil
}

// ActiveCount implements Registry.
func (r *MemoryRegistry) ActiveCount(ctx context.Context, tenantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prune(tenantID)), nil
}
