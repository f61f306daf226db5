package clock

import "time"

// Clock is the time source for session expiry, rate-limit windows and
// chat message timestamps.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// Until reports how long remains before t; negative once t has passed
	Until(t time.Time) time.Duration
}

// RealClock reads the system clock
type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) Until(t time.Time) time.Duration {
	return time.Until(t)
}
