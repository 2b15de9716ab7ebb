package services

import (
	"math"

	"github.com/pairlens/pairlens-go/internal/models"
)

// BucketSummary is one half-life bucket's aggregated view: how many trades
// landed in it and the per-combination statistics over them.
type BucketSummary struct {
	Bucket     models.HalfLifeBucket
	TradeCount int
	Stats      map[string]models.ComboStats
}

// AggregationResult is the full output of one aggregation pass.
type AggregationResult struct {
	Buckets      []BucketSummary
	Skipped      []models.SkippedTrade
	TotalTrades  int
	UsableTrades int
}

// BucketAggregator groups completed sweep results into half-life buckets and
// computes per-(bucket, combination) summary statistics.
type BucketAggregator struct {
	buckets    []models.HalfLifeBucket
	grid       []models.WindowConfig
	classifier *OutcomeClassifier
}

// NewBucketAggregator creates an aggregator over the given bucket set and
// sweep grid.
func NewBucketAggregator(buckets []models.HalfLifeBucket, grid []models.WindowConfig, classifier *OutcomeClassifier) *BucketAggregator {
	return &BucketAggregator{
		buckets:    buckets,
		grid:       grid,
		classifier: classifier,
	}
}

// Aggregate assigns each trade to at most one bucket and computes ComboStats
// per combination. Trades with an invalid reference half-life are tracked as
// skipped, with a reason, and contribute to no bucket.
func (a *BucketAggregator) Aggregate(results []models.TradeSweepResult) *AggregationResult {
	agg := &AggregationResult{
		TotalTrades: len(results),
	}

	byBucket := make(map[string][]models.TradeSweepResult, len(a.buckets))
	for _, result := range results {
		bucket, ok := models.AssignBucket(a.buckets, result.ReferenceHalfLife)
		if !ok {
			agg.Skipped = append(agg.Skipped, models.SkippedTrade{
				PairSymbol: result.Trade.PairSymbol,
				Reason:     skipReason(result.ReferenceHalfLife),
			})
			continue
		}
		agg.UsableTrades++
		byBucket[bucket.Label] = append(byBucket[bucket.Label], result)
	}

	for _, bucket := range a.buckets {
		members := byBucket[bucket.Label]
		if len(members) == 0 {
			continue
		}
		summary := BucketSummary{
			Bucket:     bucket,
			TradeCount: len(members),
			Stats:      make(map[string]models.ComboStats, len(a.grid)),
		}
		for _, combo := range a.grid {
			if stats, ok := a.comboStats(combo, members); ok {
				summary.Stats[combo.Key()] = stats
			}
		}
		agg.Buckets = append(agg.Buckets, summary)
	}

	return agg
}

// comboStats computes one combination's statistics over a bucket's trades.
// Only error-free cells with a measured beta drift qualify; a combination
// with zero qualifying trades yields no row at all rather than a placeholder
// of nulls.
func (a *BucketAggregator) comboStats(combo models.WindowConfig, members []models.TradeSweepResult) (models.ComboStats, bool) {
	var (
		drifts        []float64
		absErrors     []float64
		predictedROIs []float64
		actualROIs    []float64
		daysToTarget  []float64
		wins          int
	)

	for _, member := range members {
		cell, ok := member.Combos[combo.Key()]
		if !ok || cell.Error != "" || cell.BetaDrift == nil {
			continue
		}
		drifts = append(drifts, *cell.BetaDrift)
		actualROIs = append(actualROIs, cell.ActualROI)
		if cell.PredictionError != nil {
			absErrors = append(absErrors, math.Abs(*cell.PredictionError))
		}
		if cell.PredictedROI != nil {
			predictedROIs = append(predictedROIs, *cell.PredictedROI)
		}
		if cell.DaysToTarget != nil {
			daysToTarget = append(daysToTarget, *cell.DaysToTarget)
		}
		// A nil win stays in the denominator: absence of signal counts as a
		// non-win, not as an excluded trade.
		if cell.Win != nil && *cell.Win {
			wins++
		}
	}

	if len(drifts) == 0 {
		return models.ComboStats{}, false
	}

	stats := models.ComboStats{
		Config:           combo,
		TradeCount:       len(drifts),
		MeanBetaDrift:    mean(drifts),
		MeanActualROI:    mean(actualROIs),
		WinRatePct:       float64(wins) / float64(len(drifts)) * 100,
		SharpeRatio:      a.classifier.SharpeRatio(actualROIs),
		MeanDaysToTarget: meanOrNil(daysToTarget),
	}
	stats.MeanAbsPredictionError = meanOrNil(absErrors)
	stats.MeanPredictedROI = meanOrNil(predictedROIs)

	return stats, true
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := mean(values)
	return &m
}

func skipReason(halfLife *float64) string {
	switch {
	case halfLife == nil:
		return "reference half-life unavailable"
	case math.IsNaN(*halfLife) || math.IsInf(*halfLife, 0):
		return "non-finite reference half-life"
	default:
		return "non-positive reference half-life"
	}
}
