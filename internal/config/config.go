// Package config loads server configuration from defaults, an optional YAML
// file and COVEY_ prefixed environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/coveytown-go/internal/api"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/towns"
	"github.com/mcoot/coveytown-go/internal/services/video"
	"github.com/mcoot/coveytown-go/internal/socket"
	redisstorage "github.com/mcoot/coveytown-go/internal/storage/redis"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "COVEY_"

// PathEnv names the variable holding the YAML config path
const PathEnv = EnvPrefix + "CONFIG"

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the complete server configuration
type Config struct {
	LogLevel  string           `yaml:"log_level" env:"LOG_LEVEL"`
	Server    api.ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Storage   StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	Video     VideoConfig      `yaml:"video" envPrefix:"VIDEO_"`
	Towns     TownsConfig      `yaml:"towns" envPrefix:"TOWNS_"`
	RateLimit RateLimitConfig  `yaml:"ratelimit" envPrefix:"RATELIMIT_"`
	Socket    SocketConfig     `yaml:"socket" envPrefix:"SOCKET_"`
}

// StorageConfig selects the rate limit store
type StorageConfig struct {
	Type         string `yaml:"type" env:"TYPE"`
	RedisURL     string `yaml:"redis_url" env:"REDIS_URL"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// VideoConfig holds the video service credentials
type VideoConfig struct {
	AccountID    string        `yaml:"account_id" env:"ACCOUNT_ID"`
	APIKeyID     string        `yaml:"api_key_id" env:"API_KEY_ID"`
	APIKeySecret string        `yaml:"api_key_secret" env:"API_KEY_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// TownsConfig holds town registry settings
type TownsConfig struct {
	DefaultCapacity int    `yaml:"default_capacity" env:"DEFAULT_CAPACITY"`
	DemoTownID      string `yaml:"demo_town_id" env:"DEMO_TOWN_ID"`
}

// RateLimitConfig holds requests-per-window limits; zero disables a limit
type RateLimitConfig struct {
	JoinPerWindow       int           `yaml:"join_per_window" env:"JOIN_PER_WINDOW"`
	CreateTownPerWindow int           `yaml:"create_town_per_window" env:"CREATE_TOWN_PER_WINDOW"`
	ChatPerWindow       int           `yaml:"chat_per_window" env:"CHAT_PER_WINDOW"`
	Window              time.Duration `yaml:"window" env:"WINDOW"`
	BanDuration         time.Duration `yaml:"ban_duration" env:"BAN_DURATION"`
}

// SocketConfig holds websocket settings
type SocketConfig struct {
	SendBuffer     int      `yaml:"send_buffer" env:"SEND_BUFFER"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	redisCfg := redisstorage.DefaultConfig()
	videoCfg := video.DefaultConfig()
	limits := ratelimit.DefaultConfig()

	return &Config{
		LogLevel: "info",
		Server:   api.DefaultServerConfig(),
		Storage: StorageConfig{
			Type:         StorageTypeMemory,
			RedisURL:     redisCfg.URL,
			PoolSize:     redisCfg.PoolSize,
			MinIdleConns: redisCfg.MinIdleConns,
		},
		Video: VideoConfig{
			AccountID:    videoCfg.AccountID,
			APIKeyID:     videoCfg.APIKeyID,
			APIKeySecret: videoCfg.APIKeySecret,
			TokenTTL:     videoCfg.TTL,
		},
		Towns: TownsConfig{
			DefaultCapacity: towns.DefaultConfig().DefaultCapacity,
			DemoTownID:      "demoTownID",
		},
		RateLimit: RateLimitConfig{
			JoinPerWindow:       limits.Limits[ratelimit.ScopeJoin],
			CreateTownPerWindow: limits.Limits[ratelimit.ScopeCreateTown],
			ChatPerWindow:       limits.Limits[ratelimit.ScopeChat],
			Window:              limits.Window,
			BanDuration:         limits.BanDuration,
		},
		Socket: SocketConfig{
			SendBuffer: socket.DefaultConfig().SendBuffer,
		},
	}
}

// Load builds the configuration from defaults, the file at path (skipped if
// path is empty) and the environment, then validates it
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by COVEY_CONFIG, if any
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(PathEnv))
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("storage.redis_url is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %q or %q, got %q",
			StorageTypeMemory, StorageTypeRedis, c.Storage.Type))
	}

	if c.Video.APIKeySecret == "" {
		errs = append(errs, errors.New("video.api_key_secret must not be empty"))
	}
	if c.Video.TokenTTL <= 0 {
		errs = append(errs, errors.New("video.token_ttl must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Towns.DefaultCapacity <= 0 {
		errs = append(errs, errors.New("towns.default_capacity must be positive"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Redis returns the redis store settings
func (s StorageConfig) Redis() redisstorage.Config {
	return redisstorage.Config{
		URL:          s.RedisURL,
		PoolSize:     s.PoolSize,
		MinIdleConns: s.MinIdleConns,
	}
}

// Provider returns the video token provider settings
func (v VideoConfig) Provider() video.Config {
	return video.Config{
		AccountID:    v.AccountID,
		APIKeyID:     v.APIKeyID,
		APIKeySecret: v.APIKeySecret,
		TTL:          v.TokenTTL,
	}
}

// Registry returns the town registry settings
func (t TownsConfig) Registry() towns.Config {
	cfg := towns.DefaultConfig()
	cfg.DefaultCapacity = t.DefaultCapacity
	cfg.DemoTownID = t.DemoTownID
	return cfg
}

// Limiter returns the rate limiter settings
func (r RateLimitConfig) Limiter() ratelimit.Config {
	return ratelimit.Config{
		Limits: map[ratelimit.Scope]int{
			ratelimit.ScopeJoin:       r.JoinPerWindow,
			ratelimit.ScopeCreateTown: r.CreateTownPerWindow,
			ratelimit.ScopeChat:       r.ChatPerWindow,
		},
		Window:      r.Window,
		BanDuration: r.BanDuration,
	}
}

// Handler returns the socket handler settings
func (s SocketConfig) Handler() socket.Config {
	return socket.Config{
		SendBuffer:     s.SendBuffer,
		AllowedOrigins: s.AllowedOrigins,
	}
}
