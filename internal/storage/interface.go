package storage

import (
	"context"
	"time"
)

// Storage holds the short-lived counters and bans behind request rate limiting.
// Town state itself is never persisted.
type Storage interface {
	// IncrementWindow adds one to the counter for key and returns the count in
	// the current window. The first increment opens a window of the given length.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)

	// Ban operations
	SetBan(ctx context.Context, key string, duration time.Duration) error
	IsBanned(ctx context.Context, key string) (bool, error)

	// Clear removes both the counter and any ban for key
	Clear(ctx context.Context, key string) error

	Close() error
}
