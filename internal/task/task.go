package task

import (
	"context"
	"encoding/json"
	"time"
)

// Task is the durable record of one submitted unit of work.
type Task struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	State     State           `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Registry records task identity, owner and lifecycle state for a bounded
// retention window and enforces the per-tenant admission ceiling.
// Version: 1.0
type Registry interface {
	// Submit allocates a task id in the pending state and adds it to the tenant's
	// admission set. It returns ErrAdmissionDenied when the set is already at the
	// ceiling. The check and insert are atomic.
	Submit(ctx context.Context, tenantID string) (string, error)

	// Transition moves a task to a new state, storing the result or error text.
	// Terminal states remove the task from its tenant's admission set.
	// Transitions on expired tasks and transitions the state machine forbids
	// are logged no-ops that return nil.
	Transition(ctx context.Context, id string, to State, result json.RawMessage, errMsg string) error

	// Get returns the task, or ErrTaskNotFound when unknown or expired.
	Get(ctx context.Context, id string) (*Task, error)

	// ActiveCount returns the number of non-terminal tasks held by the tenant.
	ActiveCount(ctx context.Context, tenantID string) (int, error)
}

// RegistryConfig holds the admission and retention settings shared by Registry implementations
type RegistryConfig struct {
	// AdmissionCeiling is the maximum number of non-terminal tasks per tenant.
	AdmissionCeiling int

	// TTL is the retention window of task records and admission sets.
	TTL time.Duration
}

// DefaultRegistryConfig returns a RegistryConfig with the standard ceiling and retention window
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		AdmissionCeiling: 3,
		TTL:              time.Hour,
	}
}

// Normalize replaces non-positive values with defaults.
func (c RegistryConfig) Normalize() RegistryConfig {
	def := DefaultRegistryConfig()
	if c.AdmissionCeiling <= 0 {
		c.AdmissionCeiling = def.AdmissionCeiling
	}
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	return c
}

// Job is a unit of work executed by the WorkerPool
type Job interface {
	// ID returns the identifier of the task the job works on
	ID() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Abandoner is implemented by jobs that must record that they will never run.
// WorkerPool.Stop calls Abandon for every job it dequeues but does not start.
type Abandoner interface {
	Abandon(ctx context.Context, reason error)
}

type funcJob struct {
	id      string
	fn      func(ctx context.Context) error
	abandon func(ctx context.Context, reason error)
}

func (j funcJob) ID() string                        { return j.id }
func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

func (j funcJob) Abandon(ctx context.Context, reason error) {
	if j.abandon != nil {
		j.abandon(ctx, reason)
	}
}

// NewJob wraps a function as a Job.
func NewJob(id string, fn func(ctx context.Context) error) Job {
	return funcJob{id: id, fn: fn}
}

// NewAbandonableJob wraps fn as a Job whose abandon callback runs when the
// worker pool stops before the job starts.
func NewAbandonableJob(
	id string,
	fn func(ctx context.Context) error,
	abandon func(ctx context.Context, reason error),
) Job {
	return funcJob{id: id, fn: fn, abandon: abandon}
}

// QueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// QueueWriter provides write access to the job queue
// allowing the orchestrator to schedule jobs for processing
type QueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission
	Close()
}
