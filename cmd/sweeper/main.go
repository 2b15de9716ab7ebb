package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pairlens/pairlens-go/internal/cache"
	"github.com/pairlens/pairlens-go/internal/config"
	"github.com/pairlens/pairlens-go/internal/database"
	"github.com/pairlens/pairlens-go/internal/logging"
	"github.com/pairlens/pairlens-go/internal/models"
	"github.com/pairlens/pairlens-go/internal/services"
	"github.com/pairlens/pairlens-go/pkg/analytics"
)

func main() {
	// A missing .env is fine; configuration falls back to defaults.
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

	// The snapshot cache is an optimization; a missing Redis only costs
	// provider calls.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("Sweep run failed: %v", err)
	}

	logger.WithField("report", summary.ReportPath).Info("Sweep finished")
}
