package task_test

import (
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/newsmaker-api/internal/task"
	"github.com/phrazzld/newsmaker-api/internal/task/registrytest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryRegistry(t *testing.T) {
	registrytest.Run(t, func(t *testing.T, cfg task.RegistryConfig) (task.Registry, func(time.Duration)) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		reg := task.NewMemoryRegistry(cfg, nil)
		reg.SetClock(clock.Now)
		return reg, clock.Advance
	})
}
