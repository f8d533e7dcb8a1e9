package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockQueue implements QueueReader for testing
type mockQueue struct {
	ch chan Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		ch: make(chan Job, 10),
	}
}

func (m *mockQueue) GetChannel() <-chan Job {
	return m.ch
}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockQueue()

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 5}, logger)

	assert.NotNil(t, pool)
	assert.Equal(t, 5, pool.workerCount)
	assert.Equal(t, queue, pool.queue)
	assert.NotNil(t, pool.ctx)
	assert.NotNil(t, pool.cancel)
	assert.Nil(t, pool.errorHandler)

	// Test with invalid worker count (should default to 1)
	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, logger)
	assert.Equal(t, 1, pool.workerCount)

	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -5}, logger)
	assert.Equal(t, 1, pool.workerCount)
}

func TestWorkerPool_StartStopIdempotent(t *testing.T) {
	pool := NewWorkerPool(newMockQueue(), WorkerPoolConfig{WorkerCount: 2}, setupTestLogger())

	pool.Start()
	pool.Start()
	time.Sleep(20 * time.Millisecond)
	pool.Stop()
	pool.Stop()
}

func TestWorkerPool_ProcessJob_Success(t *testing.T) {
	queue := newMockQueue()
	completed := make(chan struct{})

	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(completed)
		return nil
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(job Job, err error) {
		t.Errorf("unexpected error handler call: %v", err)
	})
	pool.Start()
	defer pool.Stop()

	queue.ch <- job

	select {
	case <-completed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to complete")
	}
}

func TestWorkerPool_ProcessJob_Error(t *testing.T) {
	queue := newMockQueue()
	errorHandled := make(chan error, 1)
	expectedErr := errors.New("test error")

	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		return expectedErr
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(j Job, err error) {
		assert.Equal(t, job.ID(), j.ID())
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	queue.ch <- job

	select {
	case err := <-errorHandled:
		assert.Equal(t, expectedErr, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for error handler")
	}
}

func TestWorkerPool_ProcessJob_PanicKeepsWorkerAlive(t *testing.T) {
	queue := newMockQueue()
	errorHandled := make(chan error, 1)
	secondRan := make(chan struct{})

	panicking := newMockJob()
	panicking.execFn = func(ctx context.Context) error {
		panic("test panic")
	}
	following := newMockJob()
	following.execFn = func(ctx context.Context) error {
		close(secondRan)
		return nil
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(job Job, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	queue.ch <- panicking
	queue.ch <- following

	select {
	case err := <-errorHandled:
		assert.ErrorIs(t, err, ErrJobPanicked)
		assert.Contains(t, err.Error(), "test panic")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for error handler after panic")
	}

	select {
	case <-secondRan:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not survive the panic")
	}
}

func TestWorkerPool_Shutdown_DuringJob(t *testing.T) {
	queue := newMockQueue()
	jobStarted := make(chan struct{})
	jobCompleted := make(chan struct{})

	job := newMockJob()
	job.execFn = func(ctx context.Context) error {
		close(jobStarted)
		<-ctx.Done()
		close(jobCompleted)
		return ctx.Err()
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.Start()
	queue.ch <- job

	select {
	case <-jobStarted:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to start")
	}

	stopDone := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopDone)
	}()

	select {
	case <-jobCompleted:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to be canceled")
	}

	select {
	case <-stopDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for worker pool to stop")
	}
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	queue := newMockQueue()
	var running, peak int32
	done := make(chan struct{}, 6)

	for i := 0; i < 6; i++ {
		job := newMockJob()
		job.execFn = func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			done <- struct{}{}
			return nil
		}
		queue.ch <- job
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, setupTestLogger())
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 6; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for jobs")
		}
	}
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestWorkerPool_Stop_AbandonsQueuedJobs(t *testing.T) {
	queue := NewTaskQueue(4, setupTestLogger())
	started := make(chan struct{})

	blocking := NewJob("running", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	})

	var mu sync.Mutex
	var abandoned []string
	var reasons []error
	queued := func(id string) Job {
		return NewAbandonableJob(id,
			func(context.Context) error {
				t.Errorf("job %s should not start after Stop", id)
				return nil
			},
			func(_ context.Context, reason error) {
				mu.Lock()
				defer mu.Unlock()
				abandoned = append(abandoned, id)
				reasons = append(reasons, reason)
			})
	}

	var handled atomic.Int32
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())
	pool.SetErrorHandler(func(_ Job, err error) {
		if errors.Is(err, ErrPoolStopped) {
			handled.Add(1)
		}
	})
	pool.Start()

	require.NoError(t, queue.Enqueue(blocking))
	select {
	case <-started:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for job to start")
	}
	require.NoError(t, queue.Enqueue(queued("second")))
	require.NoError(t, queue.Enqueue(queued("third")))

	queue.Close()
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"second", "third"}, abandoned)
	for _, r := range reasons {
		assert.ErrorIs(t, r, ErrPoolStopped)
	}
	assert.Equal(t, int32(2), handled.Load())
	assert.Zero(t, queue.Len())
}

func TestNewJob_AbandonIsOptional(t *testing.T) {
	job := NewJob("plain", func(context.Context) error { return nil })
	a, ok := job.(Abandoner)
	require.True(t, ok)
	assert.NotPanics(t, func() { a.Abandon(context.Background(), ErrPoolStopped) })
}
