package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/towns"
	"github.com/mcoot/coveytown-go/internal/services/video"
	"github.com/mcoot/coveytown-go/internal/socket"
	"github.com/mcoot/coveytown-go/internal/storage"
	"github.com/mcoot/coveytown-go/internal/storage/memory"
	redisstorage "github.com/mcoot/coveytown-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage backs the rate limiter
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Video  video.Provider

	// Services
	Towns   *towns.Store
	Limiter *ratelimit.Limiter
	Socket  *socket.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// VideoConfig signs video tokens; zero value uses video.DefaultConfig()
	VideoConfig video.Config
	// TownsConfig configures the registry; zero value uses towns.DefaultConfig()
	TownsConfig towns.Config
	// RateLimitConfig configures request limits; nil limits use ratelimit.DefaultConfig()
	RateLimitConfig ratelimit.Config
	// SocketConfig configures the websocket adapter
	SocketConfig socket.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(clk)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	videoCfg := cfg.VideoConfig
	if videoCfg.APIKeySecret == "" {
		videoCfg = video.DefaultConfig()
	}
	provider, err := video.NewJWTProvider(videoCfg, clk, rnd, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return newWithDependencies(cfg, store, provider, clk, rnd, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg Config,
	store storage.Storage,
	provider video.Provider,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	townsCfg := cfg.TownsConfig
	if townsCfg.DefaultCapacity == 0 {
		townsCfg.DefaultCapacity = towns.DefaultConfig().DefaultCapacity
	}
	limitCfg := cfg.RateLimitConfig
	if limitCfg.Limits == nil {
		limitCfg = ratelimit.DefaultConfig()
	}

	registry := towns.New(townsCfg, provider, clk, rnd, logger)
	limiter := ratelimit.New(store, limitCfg, logger)
	socketHandler := socket.NewHandler(cfg.SocketConfig, registry, limiter, clk, rnd, logger)

	return &App{
		Storage: store,
		Clock:   clk,
		Random:  rnd,
		Video:   provider,
		Towns:   registry,
		Limiter: limiter,
		Socket:  socketHandler,
	}
}

// Close tears down every town and releases the store
func (a *App) Close() error {
	a.Towns.Close()
	return a.Storage.Close()
}
