package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pairlens/pairlens-go/internal/config"
	"github.com/pairlens/pairlens-go/internal/models"
)

// SweepEngine replays every closed trade under the full cartesian product of
// candidate beta and z-score windows. Provider calls are strictly
// sequential; the pacing delays below are the rate-limit safety margin, so
// no parallelism may be introduced without re-deriving them.
//
// Only beta is resampled at exit time. The trade's stored entry/exit
// z-scores stay authoritative for outcome classification, so predicted ROI
// is evaluated against the originally observed z trajectory, not one
// re-measured under the swept window.
type SweepEngine struct {
	client     *RetryingMetricsClient
	classifier *OutcomeClassifier
	logger     *logrus.Entry

	betaWindows   []int
	zScoreWindows []int
	grid          []models.WindowConfig
	refBetaWindow int
	refZWindow    int

	preCallDelay    time.Duration
	interTradeDelay time.Duration
	sleep           SleepFunc
}

// NewSweepEngine builds an engine from the injected sweep configuration.
// Window sets are copied and sorted ascending; the reference half-life
// window is the maximum of each set.
func NewSweepEngine(client *RetryingMetricsClient, classifier *OutcomeClassifier, cfg config.SweepConfig, logger *logrus.Logger) *SweepEngine {
	betaWindows := append([]int{}, cfg.BetaWindows...)
	zScoreWindows := append([]int{}, cfg.ZScoreWindows...)
	sort.Ints(betaWindows)
	sort.Ints(zScoreWindows)

	grid := make([]models.WindowConfig, 0, len(betaWindows)*len(zScoreWindows))
	for _, beta := range betaWindows {
		for _, z := range zScoreWindows {
			grid = append(grid, models.WindowConfig{BetaWindowDays: beta, ZScoreWindowDays: z})
		}
	}

	return &SweepEngine{
		client:          client,
		classifier:      classifier,
		logger:          logger.WithField("component", "sweep_engine"),
		betaWindows:     betaWindows,
		zScoreWindows:   zScoreWindows,
		grid:            grid,
		refBetaWindow:   betaWindows[len(betaWindows)-1],
		refZWindow:      zScoreWindows[len(zScoreWindows)-1],
		preCallDelay:    cfg.PreCallDelayDuration(),
		interTradeDelay: cfg.InterTradeDelayDuration(),
		sleep:           ContextSleep,
	}
}

// SetSleep replaces the pacing wait function, for tests.
func (e *SweepEngine) SetSleep(sleep SleepFunc) {
	e.sleep = sleep
}

// Grid returns the sweep grid in canonical ascending order.
func (e *SweepEngine) Grid() []models.WindowConfig {
	return e.grid
}

// Client exposes the underlying retrying client for call accounting.
func (e *SweepEngine) Client() *RetryingMetricsClient {
	return e.client
}

// Sweep replays all trades in source order and returns one TradeSweepResult
// per trade. Every result carries a combination map covering the full grid;
// failures live inside individual ComboResults, never in the return value.
func (e *SweepEngine) Sweep(ctx context.Context, trades []models.HistoricalTrade) []models.TradeSweepResult {
	results := make([]models.TradeSweepResult, 0, len(trades))

	for i, trade := range trades {
		if i > 0 {
			if err := e.sleep(ctx, e.interTradeDelay); err != nil {
				e.logger.WithError(err).Warn("Sweep interrupted between trades")
			}
		}

		e.logger.WithFields(logrus.Fields{
			"pair":     trade.PairSymbol,
			"trade":    trade.ID,
			"progress": i + 1,
			"total":    len(trades),
		}).Info("Sweeping trade")

		results = append(results, e.sweepTrade(ctx, trade))
	}

	return results
}

func (e *SweepEngine) sweepTrade(ctx context.Context, trade models.HistoricalTrade) models.TradeSweepResult {
	result := models.TradeSweepResult{
		Trade:  trade,
		Combos: make(map[string]models.ComboResult, len(e.grid)),
	}

	// Reference half-life under the widest windows. A failure here leaves
	// the half-life nil; the trade is still fully swept and simply lands in
	// no bucket later.
	refSnapshot := e.fetch(ctx, trade, trade.EntryTime, e.refBetaWindow, e.refZWindow)
	if !refSnapshot.Failed() && refSnapshot.HalfLifeDays != nil && !math.IsNaN(*refSnapshot.HalfLifeDays) {
		result.ReferenceHalfLife = refSnapshot.HalfLifeDays
	} else if refSnapshot.Failed() {
		e.logger.WithFields(logrus.Fields{
			"pair":  trade.PairSymbol,
			"error": refSnapshot.Error,
		}).Warn("Reference half-life unavailable")
	}

	for _, combo := range e.grid {
		result.Combos[combo.Key()] = e.sweepCombo(ctx, trade, combo)
	}

	return result
}

func (e *SweepEngine) sweepCombo(ctx context.Context, trade models.HistoricalTrade, combo models.WindowConfig) models.ComboResult {
	cell := models.ComboResult{
		Config:    combo,
		ActualROI: trade.ActualROI(),
	}

	entry := e.fetch(ctx, trade, trade.EntryTime, combo.BetaWindowDays, combo.ZScoreWindowDays)
	if entry.Failed() {
		// No exit fetch on an entry failure; the cell records the error and
		// every derived field stays nil.
		cell.Error = entry.Error
		return cell
	}

	cell.BetaAtEntry = entry.Beta

	exit := e.fetch(ctx, trade, trade.ExitTime, combo.BetaWindowDays, combo.ZScoreWindowDays)
	if exit.Failed() {
		cell.Error = exit.Error
	} else {
		cell.BetaAtExit = exit.Beta
	}

	if cell.BetaAtEntry != nil && cell.BetaAtExit != nil {
		drift := math.Abs(*cell.BetaAtExit - *cell.BetaAtEntry)
		cell.BetaDrift = &drift
	}

	cell.Win = e.classifier.IsWin(trade.EntryZScore, trade.ExitZScore)
	cell.PredictedROI = e.classifier.PredictedROI(trade.EntryZScore, trade.ExitZScore, entry.SpreadStdDev, trade.Direction)
	cell.PredictionError = e.classifier.PredictionError(cell.PredictedROI, cell.ActualROI)
	cell.DaysToTarget = e.classifier.DaysToTarget(cell.Win, trade.DurationDays())

	return cell
}

// fetch applies the fixed pre-call delay, then issues one retrying fetch.
// The delay is scheduling policy against the provider's steady-state rate
// limit, not part of the client's contract.
func (e *SweepEngine) fetch(ctx context.Context, trade models.HistoricalTrade, at time.Time, betaWindowDays, zScoreWindowDays int) *models.MetricsSnapshot {
	if err := e.sleep(ctx, e.preCallDelay); err != nil {
		return &models.MetricsSnapshot{Error: err.Error()}
	}
	return e.client.FetchMetrics(ctx, trade.AssetA, trade.AssetB, at, betaWindowDays, zScoreWindowDays)
}
