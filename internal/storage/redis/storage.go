package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/coveytown-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Counter operations

func (s *Storage) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := counterKey(key)

	// Opening the window and counting the hit happen in one MULTI so a
	// counter never exists without its expiry
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, err
	}

	// A counter written without a TTL would limit the subject forever
	if ttl.Val() < 0 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return incr.Val(), nil
}

// Ban operations

func (s *Storage) SetBan(ctx context.Context, key string, duration time.Duration) error {
	return s.client.Set(ctx, banKey(key), 1, duration).Err()
}

func (s *Storage) IsBanned(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, banKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, counterKey(key), banKey(key)).Err()
}
