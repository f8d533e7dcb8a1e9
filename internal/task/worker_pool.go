package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process jobs
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// queue provides read access to the jobs to be processed
	queue QueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a job fails, panics or is abandoned
	// If nil, errors are only logged
	errorHandler func(job Job, err error)

	startOnce sync.Once
	stopOnce  sync.Once
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 4,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(queue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	// Apply defaults for invalid config values
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	// Create a cancelable context for shutdown coordination
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:        queue,
		workerCount:  workerCount,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		errorHandler: nil, // Default to nil, can be set later with SetErrorHandler
	}
}

// SetErrorHandler allows setting a custom error handler for job failures.
// It must be called before Start.
func (p *WorkerPool) SetErrorHandler(handler func(job Job, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines. Calling Start more than once has no effect.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Stop cancels the pool context and waits for running jobs to return.
// Jobs still waiting in the queue are not started; each is drained and
// abandoned with ErrPoolStopped. Close the queue first so none arrive later.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		abandoned := p.drain()
		p.logger.Info("worker pool stopped", "abandoned_jobs", abandoned)
	})
}

// drain abandons every job left in the queue without blocking.
func (p *WorkerPool) drain() int {
	n := 0
	for {
		select {
		case job, ok := <-p.queue.GetChannel():
			if !ok {
				return n
			}
			p.abandon(job)
			n++
		default:
			return n
		}
	}
}

// abandon tells job it will not run and reports it to the error handler.
func (p *WorkerPool) abandon(job Job) {
	p.logger.Warn("job abandoned on shutdown", "task_id", job.ID())
	if a, ok := job.(Abandoner); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("abandon callback panicked", "task_id", job.ID(), "panic", r)
				}
			}()
			a.Abandon(context.Background(), ErrPoolStopped)
		}()
	}
	if p.errorHandler != nil {
		p.errorHandler(job, ErrPoolStopped)
	}
}

// worker processes jobs from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			// Context cancelled, stop worker
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-p.queue.GetChannel():
			if !ok {
				// Channel closed, stop worker
				p.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			if p.ctx.Err() != nil {
				p.abandon(job)
				return
			}

			p.processJob(job, id)
		}
	}
}

// processJob executes a single job, converting a panic into an error
func (p *WorkerPool) processJob(job Job, workerID int) {
	logger := p.logger.With(
		"task_id", job.ID(),
		"worker_id", workerID,
	)

	err := p.execute(job)
	if err == nil {
		logger.Debug("job finished")
		return
	}

	logger.Error("job execution failed", "error", err)
	if p.errorHandler != nil {
		p.errorHandler(job, err)
	}
}

func (p *WorkerPool) execute(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.Execute(p.ctx)
}
