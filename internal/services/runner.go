package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/pairlens/pairlens-go/internal/models"
)

// ErrSweepInProgress is returned when a run is requested while another run
// holds the single logical thread of control.
var ErrSweepInProgress = errors.New("a sweep run is already in progress")

// TradeSource is the read-only supplier of closed trades. Failure to query
// it is fatal to a whole run; nothing partial is reported.
type TradeSource interface {
	ListClosedTrades(ctx context.Context) ([]models.HistoricalTrade, error)
}

// CacheHitCounter reports how many provider calls a cache absorbed.
type CacheHitCounter interface {
	CacheHits() int64
}

// SweepRunner orchestrates one run end to end: trade source, sweep engine,
// aggregation, ranking, report rendering, report sink, notification.
type SweepRunner struct {
	source     TradeSource
	engine     *SweepEngine
	aggregator *BucketAggregator
	ranker     *RankingEngine
	reporter   *ReportGenerator
	notifier   *NotificationService
	cacheHits  CacheHitCounter
	outputDir  string
	logger     *logrus.Entry

	mu          sync.Mutex
	running     bool
	lastSummary *models.RunSummary
}

// NewSweepRunner wires the pipeline together. notifier and cacheHits may be
// nil.
func NewSweepRunner(
	source TradeSource,
	engine *SweepEngine,
	aggregator *BucketAggregator,
	ranker *RankingEngine,
	reporter *ReportGenerator,
	notifier *NotificationService,
	cacheHits CacheHitCounter,
	outputDir string,
	logger *logrus.Logger,
) *SweepRunner {
	return &SweepRunner{
		source:     source,
		engine:     engine,
		aggregator: aggregator,
		ranker:     ranker,
		reporter:   reporter,
		notifier:   notifier,
		cacheHits:  cacheHits,
		outputDir:  outputDir,
		logger:     logger.WithField("component", "sweep_runner"),
	}
}

// Running reports whether a run currently holds the engine.
func (r *SweepRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastSummary returns the most recent completed run's summary, or nil.
func (r *SweepRunner) LastSummary() *models.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSummary
}

// LatestReportPath is where the most recent report is mirrored for serving.
func (r *SweepRunner) LatestReportPath() string {
	return filepath.Join(r.outputDir, "latest.md")
}

// Run executes one full sweep. The only run-fatal failure is the trade
// source; every provider failure is carried as data inside the results.
func (r *SweepRunner) Run(ctx context.Context) (*models.RunSummary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	runID := uuid.New().String()
	startedAt := time.Now()
	callsBefore := r.engine.Client().Calls()

	r.logger.WithField("run_id", runID).Info("Sweep run starting")

	trades, err := r.source.ListClosedTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed trades: %w", err)
	}
	if len(trades) == 0 {
		r.logger.WithField("run_id", runID).Warn("No closed trades to sweep")
	}

	results := r.engine.Sweep(ctx, trades)
	agg := r.aggregator.Aggregate(results)
	report := r.reporter.Generate(runID, agg, r.ranker)

	reportPath, err := r.writeReport(report, startedAt)
	if err != nil {
		return nil, err
	}

	summary := &models.RunSummary{
		RunID:         runID,
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
		TotalTrades:   agg.TotalTrades,
		UsableTrades:  agg.UsableTrades,
		SkippedTrades: len(agg.Skipped),
		ProviderCalls: r.engine.Client().Calls() - callsBefore,
		ReportPath:    reportPath,
	}
	if r.cacheHits != nil {
		summary.CacheHits = r.cacheHits.CacheHits()
	}

	r.mu.Lock()
	r.lastSummary = summary
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"run_id":         summary.RunID,
		"duration":       summary.Duration,
		"total_trades":   summary.TotalTrades,
		"usable_trades":  summary.UsableTrades,
		"skipped_trades": summary.SkippedTrades,
		"provider_calls": summary.ProviderCalls,
		"cache_hits":     summary.CacheHits,
		"report":         summary.ReportPath,
	}).Info("Sweep run complete")

	r.logResourceStats()

	if r.notifier != nil {
		if err := r.notifier.NotifyRunComplete(ctx, summary); err != nil {
			r.logger.WithError(err).Warn("Run notification failed")
		}
	}

	return summary, nil
}

func (r *SweepRunner) writeReport(report string, startedAt time.Time) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("sweep_report_%s.md", startedAt.UTC().Format("20060102T150405Z"))
	reportPath := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.WriteFile(r.LatestReportPath(), []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write latest report: %w", err)
	}

	return reportPath, nil
}

func (r *SweepRunner) logResourceStats() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	fields := logrus.Fields{}
	if memInfo, err := proc.MemoryInfo(); err == nil {
		fields["rss_mb"] = memInfo.RSS / (1024 * 1024)
	}
	if cores, err := cpu.Counts(true); err == nil {
		fields["cpu_cores"] = cores
	}
	r.logger.WithFields(fields).Info("Run resource stats")
}
