package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coveytown-go/internal/dependencies/mocks"
	"github.com/mcoot/coveytown-go/internal/storage/memory"
	redisstorage "github.com/mcoot/coveytown-go/internal/storage/redis"
	"github.com/mcoot/coveytown-go/internal/testutil"
)

type LimiterSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	limiter *Limiter
	logs    *testutil.LogBuffer
	ctx     context.Context
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := Config{
		Limits:      map[Scope]int{ScopeJoin: 2, ScopeChat: 3},
		Window:      time.Minute,
		BanDuration: 5 * time.Minute,
	}
	logger, logs := testutil.CaptureLogger()
	s.logs = logs
	s.limiter = New(memory.New(s.clock), cfg, logger)
	s.ctx = context.Background()
}

func (s *LimiterSuite) allow(scope Scope, subject string) bool {
	ok, err := s.limiter.Allow(s.ctx, scope, subject)
	s.Require().NoError(err)
	return ok
}

func (s *LimiterSuite) TestAllowsUpToLimit() {
	s.True(s.allow(ScopeJoin, "1.2.3.4"))
	s.True(s.allow(ScopeJoin, "1.2.3.4"))
	s.False(s.allow(ScopeJoin, "1.2.3.4"))

	// Other subjects and scopes are independent
	s.True(s.allow(ScopeJoin, "5.6.7.8"))
	s.True(s.allow(ScopeChat, "1.2.3.4"))
}

func (s *LimiterSuite) TestExceedingLimitBans() {
	s.allow(ScopeJoin, "ip")
	s.allow(ScopeJoin, "ip")
	s.False(s.allow(ScopeJoin, "ip"))
	s.True(s.logs.Contains("rate limit exceeded"))

	// Still banned after the window has rolled over
	s.clock.Advance(2 * time.Minute)
	s.False(s.allow(ScopeJoin, "ip"))

	s.clock.Advance(3 * time.Minute)
	s.True(s.allow(ScopeJoin, "ip"))
}

func (s *LimiterSuite) TestUnlimitedScope() {
	for n := 0; n < 100; n++ {
		s.True(s.allow(ScopeCreateTown, "ip"))
	}
}

func (s *LimiterSuite) TestReset() {
	s.allow(ScopeJoin, "ip")
	s.allow(ScopeJoin, "ip")
	s.allow(ScopeJoin, "ip")

	s.Require().NoError(s.limiter.Reset(s.ctx, ScopeJoin, "ip"))
	s.True(s.allow(ScopeJoin, "ip"))
}

func TestLimiterWithRedisStore(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	store := redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
	defer store.Close()

	limiter := New(store, Config{
		Limits:      map[Scope]int{ScopeChat: 1},
		Window:      time.Minute,
		BanDuration: time.Minute,
	}, testutil.NopLogger())
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, ScopeChat, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, ScopeChat, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mini.Exists("covey:ratelimit:ban:chat:p1"))

	mini.FastForward(time.Minute)
	ok, err = limiter.Allow(ctx, ScopeChat, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func (s *LimiterSuite) TestRetryAfter() {
	s.Equal(5*time.Minute, s.limiter.RetryAfter())

	noBan := New(memory.New(s.clock), Config{Window: 30 * time.Second}, testutil.NopLogger())
	s.Equal(30*time.Second, noBan.RetryAfter())
}
