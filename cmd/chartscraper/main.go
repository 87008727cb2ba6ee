package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/api"
	"chartscraper/internal/browser"
	"chartscraper/internal/config"
	"chartscraper/internal/insight"
	"chartscraper/internal/monitoring"
	"chartscraper/internal/proxy"
	"chartscraper/internal/scrape"
	"chartscraper/internal/storage"
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

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	// Initialize Monitoring, Identity rotation
	metrics := monitoring.NewMetrics()
	proxyManager := proxy.NewManager()

	// Launch the browser session. Exactly one is held for the lifetime of
	// the process and it must be released on every exit path.
	session, err := browser.NewSession(
		cfg.Headless,
		time.Duration(cfg.PageLoadTimeout)*time.Second,
		proxyManager,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to launch browser", zap.Error(err))
	}
	defer session.Close()

	insights := insight.New(cfg.OpenAIKey, logger)
	if !insights.Enabled() {
		logger.Info("insight generation disabled, no API key configured")
	}

	// Initialize Core Scraper
	scraper := scrape.NewScraper(cfg, session, redisStore, pgStore, insights, metrics, logger)
	scraper.Start()

	// Initialize API Server
	server := api.NewServer(cfg, scraper, pgStore, redisStore, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop accepting requests before the scraper: a handler submitting to a
	// stopped scraper would have its task silently dropped.
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	scraper.Stop()

	logger.Info("server exiting")
}
