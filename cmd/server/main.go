package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/coveytown-go/internal/api"
	"github.com/mcoot/coveytown-go/internal/config"
	"github.com/mcoot/coveytown-go/internal/factory"
)

func main() {
	// Load configuration from COVEY_CONFIG and the environment
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:          logger,
		StorageType:     cfg.Storage.Type,
		VideoConfig:     cfg.Video.Provider(),
		TownsConfig:     cfg.Towns.Registry(),
		RateLimitConfig: cfg.RateLimit.Limiter(),
		SocketConfig:    cfg.Socket.Handler(),
	}
	if cfg.Storage.Type == factory.StorageTypeRedis {
		redisCfg := cfg.Storage.Redis()
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Seed the demo town so clients have somewhere to land
	if cfg.Towns.DemoTownID != "" {
		town, _, err := app.Towns.CreateTown(context.Background(), cfg.Towns.DemoTownID, false)
		if err != nil {
			logger.Warn("could not create demo town", slog.String("error", err.Error()))
		} else {
			logger.Info("demo town ready", slog.String("town", string(town.ID())))
		}
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Store:         app.Towns,
		Limiter:       app.Limiter,
		SocketHandler: app.Socket,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	// Create server
	server := api.NewServer(mux, cfg.Server, logger)
	// Socket connections are hijacked, so the server cannot drain them;
	// closing the towns sends each one townClosing
	server.OnShutdown(app.Towns.Close)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
