package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finder/internal/api"
	"finder/internal/cache"
	"finder/internal/catalog"
	"finder/internal/config"
	"finder/internal/fetch"
	"finder/internal/monitoring"
	"finder/internal/pipeline"
	"finder/internal/storage"

	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Shared result/sitemap cache: Redis when configured, in-process otherwise
	var store cache.Store
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(cfg.RedisAddr)
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	} else {
		store = cache.NewMemory()
	}

	// Optional resolution history
	var history *storage.PostgresStore
	if cfg.PostgresURL != "" {
		history, err = storage.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer history.Close()
	}

	metrics := monitoring.NewMetrics()
	fetcher := fetch.New(time.Duration(cfg.FetchTimeout)*time.Second, cfg.FetchRate, cfg.FetchBurst, logger)
	matcher := catalog.Load(cfg.CatalogPath, logger)

	resolver := pipeline.New(cfg, fetcher, store, matcher, metrics, logger)

	// Initialize API Server
	server := api.NewServer(cfg, resolver, history, store, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.Bool("remote_enabled", cfg.RemoteEnabled),
		zap.Int("catalog_products", matcher.Size()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
