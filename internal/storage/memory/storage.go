package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/storage"
)

// sweepInterval bounds how often expired windows and bans are evicted
const sweepInterval = time.Minute

type window struct {
	count     int64
	expiresAt time.Time
}

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	clock clock.Clock

	mu        sync.Mutex
	windows   map[string]*window
	bans      map[string]time.Time
	lastSweep time.Time
}

// New creates a new in-memory storage instance
func New(clock clock.Clock) *Storage {
	return &Storage{
		clock:     clock,
		windows:   make(map[string]*window),
		bans:      make(map[string]time.Time),
		lastSweep: clock.Now(),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) IncrementWindow(ctx context.Context, key string, length time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	w, ok := s.windows[key]
	if !ok || s.clock.Until(w.expiresAt) <= 0 {
		w = &window{expiresAt: s.clock.Now().Add(length)}
		s.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (s *Storage) SetBan(ctx context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.bans[key] = s.clock.Now().Add(duration)
	return nil
}

func (s *Storage) IsBanned(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.bans[key]
	if !ok {
		return false, nil
	}
	if s.clock.Until(until) <= 0 {
		delete(s.bans, key)
		return false, nil
	}
	return true, nil
}

func (s *Storage) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	delete(s.bans, key)
	return nil
}

// sweepLocked drops every expired window and ban, at most once per
// sweepInterval, so subjects that never return do not pile up
func (s *Storage) sweepLocked() {
	if s.clock.Since(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = s.clock.Now()
	for key, w := range s.windows {
		if s.clock.Until(w.expiresAt) <= 0 {
			delete(s.windows, key)
		}
	}
	for key, until := range s.bans {
		if s.clock.Until(until) <= 0 {
			delete(s.bans, key)
		}
	}
}

// Close drops all counters
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string]*window)
	s.bans = make(map[string]time.Time)
	return nil
}
