package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/coveytown-go/internal/storage"
)

// Scope names a family of requests limited together
type Scope string

const (
	ScopeJoin       Scope = "join"
	ScopeCreateTown Scope = "create-town"
	ScopeChat       Scope = "chat"
)

// Config holds per-scope limits
type Config struct {
	// Limits is the number of requests allowed per window; zero means unlimited
	Limits      map[Scope]int
	Window      time.Duration
	BanDuration time.Duration
}

// DefaultConfig returns default rate limits
func DefaultConfig() Config {
	return Config{
		Limits: map[Scope]int{
			ScopeJoin:       30,
			ScopeCreateTown: 10,
			ScopeChat:       60,
		},
		Window:      time.Minute,
		BanDuration: 5 * time.Minute,
	}
}

// Limiter applies fixed-window limits and bans subjects that exceed them
type Limiter struct {
	store  storage.Storage
	cfg    Config
	logger *slog.Logger
}

// New creates a Limiter backed by store
func New(store storage.Storage, cfg Config, logger *slog.Logger) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ratelimit")),
	}
}

// RetryAfter is how long a rejected subject should wait before trying again
func (l *Limiter) RetryAfter() time.Duration {
	if l.cfg.BanDuration > 0 {
		return l.cfg.BanDuration
	}
	return l.cfg.Window
}

// Allow records a request from subject and reports whether it may proceed.
// A subject exceeding its limit is banned for the configured duration.
func (l *Limiter) Allow(ctx context.Context, scope Scope, subject string) (bool, error) {
	limit := l.cfg.Limits[scope]
	if limit <= 0 {
		return true, nil
	}

	key := string(scope) + ":" + subject

	banned, err := l.store.IsBanned(ctx, key)
	if err != nil {
		return false, err
	}
	if banned {
		return false, nil
	}

	count, err := l.store.IncrementWindow(ctx, key, l.cfg.Window)
	if err != nil {
		return false, err
	}
	if count <= int64(limit) {
		return true, nil
	}

	if l.cfg.BanDuration > 0 {
		if err := l.store.SetBan(ctx, key, l.cfg.BanDuration); err != nil {
			return false, err
		}
	}
	l.logger.Warn("rate limit exceeded",
		slog.String("scope", string(scope)),
		slog.String("subject", subject),
		slog.Duration("ban", l.cfg.BanDuration))
	return false, nil
}

// Reset forgets the history of subject within scope
func (l *Limiter) Reset(ctx context.Context, scope Scope, subject string) error {
	return l.store.Clear(ctx, string(scope)+":"+subject)
}
