package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coveytown-go/internal/dependencies/mocks"
)

type StorageSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = New(s.clock)
	s.ctx = context.Background()
}

func (s *StorageSuite) TestIncrementWindowCounts() {
	for want := int64(1); want <= 3; want++ {
		count, err := s.storage.IncrementWindow(s.ctx, "join:1.2.3.4", time.Minute)
		s.Require().NoError(err)
		s.Equal(want, count)
	}

	count, err := s.storage.IncrementWindow(s.ctx, "join:5.6.7.8", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *StorageSuite) TestIncrementWindowResetsAfterExpiry() {
	_, _ = s.storage.IncrementWindow(s.ctx, "k", time.Minute)
	_, _ = s.storage.IncrementWindow(s.ctx, "k", time.Minute)

	s.clock.Advance(59 * time.Second)
	count, _ := s.storage.IncrementWindow(s.ctx, "k", time.Minute)
	s.Equal(int64(3), count)

	s.clock.Advance(time.Second)
	count, _ = s.storage.IncrementWindow(s.ctx, "k", time.Minute)
	s.Equal(int64(1), count)
}

func (s *StorageSuite) TestBanExpires() {
	banned, err := s.storage.IsBanned(s.ctx, "k")
	s.Require().NoError(err)
	s.False(banned)

	s.Require().NoError(s.storage.SetBan(s.ctx, "k", 5*time.Minute))
	banned, _ = s.storage.IsBanned(s.ctx, "k")
	s.True(banned)

	s.clock.Advance(5 * time.Minute)
	banned, _ = s.storage.IsBanned(s.ctx, "k")
	s.False(banned)
}

func (s *StorageSuite) TestClear() {
	_, _ = s.storage.IncrementWindow(s.ctx, "k", time.Minute)
	_ = s.storage.SetBan(s.ctx, "k", time.Minute)

	s.Require().NoError(s.storage.Clear(s.ctx, "k"))

	banned, _ := s.storage.IsBanned(s.ctx, "k")
	s.False(banned)
	count, _ := s.storage.IncrementWindow(s.ctx, "k", time.Minute)
	s.Equal(int64(1), count)
}

func (s *StorageSuite) TestExpiredEntriesAreEvicted() {
	for _, key := range []string{"join:a", "join:b", "join:c"} {
		_, err := s.storage.IncrementWindow(s.ctx, key, time.Minute)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.storage.SetBan(s.ctx, "join:a", 30*time.Second))

	// A live window survives a sweep
	s.clock.Advance(30 * time.Second)
	_, err := s.storage.IncrementWindow(s.ctx, "join:d", 5*time.Minute)
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)
	_, err = s.storage.IncrementWindow(s.ctx, "join:e", time.Minute)
	s.Require().NoError(err)

	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	s.Len(s.storage.windows, 2)
	s.Contains(s.storage.windows, "join:d")
	s.Contains(s.storage.windows, "join:e")
	s.Empty(s.storage.bans)
}
