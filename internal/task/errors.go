package task

import "errors"

// Registry errors.
var (
	// ErrAdmissionDenied is returned by Submit when the tenant already has the
	// maximum number of non-terminal tasks.
	ErrAdmissionDenied = errors.New("admission denied: tenant at concurrency ceiling")

	// ErrTaskNotFound is returned when a task id is unknown or its record has expired.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTenant is returned when a tenant id is required but empty.
	ErrEmptyTenant = errors.New("tenant id cannot be empty")

	// ErrInvalidState is returned when a state value is not part of the lifecycle.
	ErrInvalidState = errors.New("invalid task state")
)

// Queue and worker errors.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")

	// ErrJobPanicked wraps the recovered value of a job that panicked.
	ErrJobPanicked = errors.New("job panicked")

	// ErrPoolStopped is passed to jobs abandoned by WorkerPool.Stop.
	ErrPoolStopped = errors.New("worker pool stopped")
)
