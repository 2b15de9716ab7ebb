package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pairlens/pairlens-go/internal/api"
	"github.com/pairlens/pairlens-go/internal/cache"
	"github.com/pairlens/pairlens-go/internal/config"
	"github.com/pairlens/pairlens-go/internal/database"
	"github.com/pairlens/pairlens-go/internal/logging"
	"github.com/pairlens/pairlens-go/internal/models"
	"github.com/pairlens/pairlens-go/internal/services"
	"github.com/pairlens/pairlens-go/pkg/analytics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var snapshotCache *cache.RedisSnapshotCache
	if cfg.Redis.Enabled {
		redis, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, sweeping without snapshot cache")
		} else {
			defer redis.Close()
			snapshotCache = cache.NewRedisSnapshotCache(redis.Client, cfg.Redis.CacheTTLDuration())
		}
	}

	provider := analytics.NewClient(&cfg.Provider)
	cachingProvider := cache.NewCachingProvider(provider, snapshotCache)

	client := services.NewRetryingMetricsClient(cachingProvider, services.RetryPolicy{
		MaxAttempts:       cfg.Sweep.MaxAttempts,
		BackoffBase:       cfg.Sweep.BackoffBaseDuration(),
		RateLimitCooldown: cfg.Sweep.RateLimitCooldownDuration(),
	}, logger)

	classifier := services.NewOutcomeClassifier()
	engine := services.NewSweepEngine(client, classifier, cfg.Sweep, logger)
	buckets := models.NewHalfLifeBuckets(cfg.Sweep.BucketBounds)
	aggregator := services.NewBucketAggregator(buckets, engine.Grid(), classifier)
	ranker := services.NewRankingEngine(engine.Grid())
	reporter := services.NewReportGenerator(engine.Grid())
	notifier := services.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)

	runner := services.NewSweepRunner(
		database.NewTradeRepository(db.Pool),
		engine,
		aggregator,
		ranker,
		reporter,
		notifier,
		cachingProvider,
		cfg.Report.OutputDir,
		logger,
	)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, runner)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
