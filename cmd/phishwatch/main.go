package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/api"
	"github.com/fruzzinn/phishwatch/internal/capability"
	"github.com/fruzzinn/phishwatch/internal/config"
	"github.com/fruzzinn/phishwatch/internal/detector"
	"github.com/fruzzinn/phishwatch/internal/monitoring"
	"github.com/fruzzinn/phishwatch/internal/scan"
	"github.com/fruzzinn/phishwatch/internal/similarity"
	"github.com/fruzzinn/phishwatch/internal/storage"
	"github.com/fruzzinn/phishwatch/internal/target"
	"github.com/fruzzinn/phishwatch/internal/typosquat"
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

	profile, err := target.Load(cfg.TargetProfilePath)
	if err != nil {
		logger.Fatal("could not load target profile", zap.Error(err))
	}

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := pgStore.InitSchema(context.Background()); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	// Initialize Monitoring and Capabilities
	metrics := monitoring.NewMetrics()
	capturer := capability.NewChromeCapturer(time.Duration(cfg.CaptureTimeout)*time.Second, logger)
	defer capturer.Close()
	resolver := capability.NewNetResolver(logger)
	fetcher := capability.NewInsecureFetcher(time.Duration(cfg.FetchTimeout) * time.Second)

	// Initialize Detection Core
	det := detector.New(
		profile, capturer, resolver, fetcher,
		similarity.SyntheticConfidence{},
		metrics, logger,
		cfg.ScreenshotDir, cfg.ActiveThreshold,
	)

	registry := scan.NewMemoryRegistry(clockwork.NewRealClock(), scan.DefaultRetention)
	defer registry.Close()

	orchestrator := scan.NewOrchestrator(
		det, pgStore, redisStore, registry,
		typosquat.New(target.Homographs()),
		metrics, logger,
		profile.Domain,
		time.Duration(cfg.ScanDelayMs)*time.Millisecond,
		time.Duration(cfg.RecheckTTLHours)*time.Hour,
		cfg.PersistThreshold,
	)

	// Initialize API Server
	server := api.NewServer(cfg, det, orchestrator, pgStore, redisStore, metrics, logger)

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

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	pgStore.Close()
	logger.Info("server exiting")
}
