package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
)

// MockClock is a manually advanced clock. It is safe to read from the
// goroutines a town controller or socket client runs on while a test
// advances it.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

var _ clock.Clock = (*MockClock)(nil)

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c *MockClock) Until(t time.Time) time.Duration {
	return t.Sub(c.Now())
}

// Advance moves the clock forward, e.g. past a rate-limit window or ban
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
