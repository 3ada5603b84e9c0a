package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/app"
	"github.com/kailas-cloud/keypoints/internal/config"
	dbRedis "github.com/kailas-cloud/keypoints/internal/db/redis"
	logpkg "github.com/kailas-cloud/keypoints/internal/logger"
	"github.com/kailas-cloud/keypoints/internal/metrics"
	brdrepo "github.com/kailas-cloud/keypoints/internal/repository/brd"
	quotarepo "github.com/kailas-cloud/keypoints/internal/repository/quota"
	transcriptionrepo "github.com/kailas-cloud/keypoints/internal/repository/transcription"
	chiTransport "github.com/kailas-cloud/keypoints/internal/transport/chi"
	brduc "github.com/kailas-cloud/keypoints/internal/usecase/brd"
	embeddinguc "github.com/kailas-cloud/keypoints/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/keypoints/internal/usecase/health"
	transcriptionuc "github.com/kailas-cloud/keypoints/internal/usecase/transcription"
	usageuc "github.com/kailas-cloud/keypoints/internal/usecase/usage"
	"github.com/kailas-cloud/keypoints/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting keypoints API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Redis and Valkey speak the same protocol; one rueidis store serves both drivers.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterExtractionMetrics()

	// Pass nil interface (not typed nil pointer!) if the quota is not configured.
	var quotaChecker embeddinguc.QuotaChecker
	var budget usageuc.BudgetReader
	if qc := cfg.Embedding.Quota; qc.DailyTokenLimit > 0 {
		quota := embeddinguc.NewQuota(
			cfg.Embedding.Provider, qc.DailyTokenLimit, embeddinguc.QuotaAction(qc.Action), logger,
		)
		quota.WithStore(ctx, quotarepo.New(store, quotarepo.DefaultTTL), cfg.Storage.KeyPrefix)
		quotaChecker = quota
		budget = quota
	}

	embOpts := &app.EmbedderOptions{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Serialize:  cfg.Embedding.Serialize,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Quota:      quotaChecker,
		Logger:     logger,
	}
	if cfg.Embedding.Cache.Enabled {
		embOpts.Cache = store
		embOpts.CacheTTL = cfg.Embedding.Cache.TTL()
	}
	embedder, err := app.BuildEmbedder(embOpts)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
		zap.Bool("serialize", cfg.Embedding.Serialize),
	)

	extractor := app.NewExtractor(embedder, app.ExtractionOptions{
		Seed:          *cfg.Extraction.Seed,
		MaxIterations: cfg.Extraction.MaxIterations,
		Restarts:      cfg.Extraction.Restarts,
		MinClusters:   cfg.Extraction.MinClusters,
		MaxClusters:   cfg.Extraction.MaxClusters,
	}, logger)

	// Repositories
	ttl := cfg.Storage.TTL()
	trRepo := transcriptionrepo.New(store, cfg.Storage.KeyPrefix, ttl)
	brdRepo := brdrepo.New(store, cfg.Storage.KeyPrefix, ttl)

	// Use case services
	trSvc := transcriptionuc.New(extractor, trRepo)
	brdSvc := brduc.New(brdRepo, trSvc, embedder)
	usageSvc := usageuc.New(cfg.Embedding.Provider, budget)
	healthSvc := healthuc.New(store, embeddingHealthChecker(embedder), logger)

	server := chiTransport.NewServer(extractor, trSvc, brdSvc, usageSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, cfg.HTTP.MaxBodyBytes, logger, metrics.Middleware())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker returns the embedder's health check, or nil when it has none.
func embeddingHealthChecker(e any) healthuc.EmbeddingChecker {
	if hc, ok := e.(healthuc.EmbeddingChecker); ok {
		return hc
	}
	return nil
}
