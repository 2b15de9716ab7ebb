package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairlens/pairlens-go/internal/models"
)

var testGrid = []models.WindowConfig{
	{BetaWindowDays: 7, ZScoreWindowDays: 7},
	{BetaWindowDays: 7, ZScoreWindowDays: 14},
}

func newTestAggregator() *BucketAggregator {
	buckets := models.NewHalfLifeBuckets([]float64{3, 7, 14})
	return NewBucketAggregator(buckets, testGrid, NewOutcomeClassifier())
}

func sweepResult(pair string, halfLife *float64, combos map[string]models.ComboResult) models.TradeSweepResult {
	return models.TradeSweepResult{
		Trade:             models.HistoricalTrade{ID: pair, PairSymbol: pair},
		ReferenceHalfLife: halfLife,
		Combos:            combos,
	}
}

func validCombo(drift, actualROI float64, win *bool) models.ComboResult {
	return models.ComboResult{
		Config:    testGrid[0],
		BetaDrift: f64(drift),
		ActualROI: actualROI,
		Win:       win,
	}
}

func TestBucketAggregator_BucketEdges(t *testing.T) {
	aggregator := newTestAggregator()

	win := true
	results := []models.TradeSweepResult{
		sweepResult("A/B", f64(3), map[string]models.ComboResult{"7d_7d": validCombo(0.1, 1, &win)}),
		sweepResult("C/D", f64(3.01), map[string]models.ComboResult{"7d_7d": validCombo(0.2, 2, &win)}),
		sweepResult("E/F", f64(20), map[string]models.ComboResult{"7d_7d": validCombo(0.3, 3, &win)}),
	}

	agg := aggregator.Aggregate(results)

	labels := make(map[string]int)
	for _, bucket := range agg.Buckets {
		labels[bucket.Bucket.Label] = bucket.TradeCount
	}
	assert.Equal(t, map[string]int{"0-3d": 1, "3-7d": 1, "14d+": 1}, labels)
	assert.Equal(t, 3, agg.UsableTrades)
	assert.Empty(t, agg.Skipped)
}

func TestBucketAggregator_InvalidHalfLivesAreSkipped(t *testing.T) {
	aggregator := newTestAggregator()

	results := []models.TradeSweepResult{
		sweepResult("NIL/HL", nil, nil),
		sweepResult("ZERO/HL", f64(0), nil),
		sweepResult("NEG/HL", f64(-2), nil),
		sweepResult("NAN/HL", f64(math.NaN()), nil),
	}

	agg := aggregator.Aggregate(results)

	assert.Equal(t, 4, agg.TotalTrades)
	assert.Equal(t, 0, agg.UsableTrades)
	require.Len(t, agg.Skipped, 4)
	assert.Equal(t, "reference half-life unavailable", agg.Skipped[0].Reason)
	assert.Equal(t, "non-positive reference half-life", agg.Skipped[1].Reason)
	assert.Equal(t, "non-positive reference half-life", agg.Skipped[2].Reason)
	assert.Equal(t, "non-finite reference half-life", agg.Skipped[3].Reason)
	assert.Empty(t, agg.Buckets)
}

func TestBucketAggregator_ErrorAndNilDriftCellsExcluded(t *testing.T) {
	aggregator := newTestAggregator()

	win := true
	results := []models.TradeSweepResult{
		sweepResult("A/B", f64(5), map[string]models.ComboResult{
			"7d_7d": validCombo(0.1, 1, &win),
		}),
		sweepResult("C/D", f64(5), map[string]models.ComboResult{
			"7d_7d": {Error: "max retries exceeded"},
		}),
		sweepResult("E/F", f64(5), map[string]models.ComboResult{
			"7d_7d": {ActualROI: 2}, // no drift measured
		}),
	}

	agg := aggregator.Aggregate(results)
	require.Len(t, agg.Buckets, 1)

	stats, ok := agg.Buckets[0].Stats["7d_7d"]
	require.True(t, ok)
	assert.Equal(t, 1, stats.TradeCount)
	// The bucket still counts all three trades even though only one cell
	// qualified for this combination.
	assert.Equal(t, 3, agg.Buckets[0].TradeCount)
}

func TestBucketAggregator_EmptyComboOmittedEntirely(t *testing.T) {
	aggregator := newTestAggregator()

	results := []models.TradeSweepResult{
		sweepResult("A/B", f64(5), map[string]models.ComboResult{
			"7d_7d":  validCombo(0.1, 1, nil),
			"7d_14d": {Error: "max retries exceeded"},
		}),
	}

	agg := aggregator.Aggregate(results)
	require.Len(t, agg.Buckets, 1)

	_, ok := agg.Buckets[0].Stats["7d_14d"]
	assert.False(t, ok, "a combination with zero valid trades must not emit a placeholder row")
}

func TestBucketAggregator_WinRateDenominator(t *testing.T) {
	aggregator := newTestAggregator()

	win := true
	loss := false
	results := []models.TradeSweepResult{
		sweepResult("A/B", f64(5), map[string]models.ComboResult{"7d_7d": validCombo(0.1, 1, &win)}),
		sweepResult("C/D", f64(5), map[string]models.ComboResult{"7d_7d": validCombo(0.1, 2, &loss)}),
		// Nil win counts toward the denominator, not the numerator.
		sweepResult("E/F", f64(5), map[string]models.ComboResult{"7d_7d": validCombo(0.1, 3, nil)}),
	}

	agg := aggregator.Aggregate(results)
	stats := agg.Buckets[0].Stats["7d_7d"]

	assert.Equal(t, 3, stats.TradeCount)
	assert.InDelta(t, 100.0/3.0, stats.WinRatePct, 1e-9)
}

func TestBucketAggregator_MeansPerMetricIndependently(t *testing.T) {
	aggregator := newTestAggregator()

	win := true
	withPrediction := validCombo(0.2, 2, &win)
	withPrediction.PredictedROI = f64(3)
	withPrediction.PredictionError = f64(1)
	withPrediction.DaysToTarget = f64(4)

	withoutPrediction := validCombo(0.4, 6, &win)

	results := []models.TradeSweepResult{
		sweepResult("A/B", f64(5), map[string]models.ComboResult{"7d_7d": withPrediction}),
		sweepResult("C/D", f64(5), map[string]models.ComboResult{"7d_7d": withoutPrediction}),
	}

	agg := aggregator.Aggregate(results)
	stats := agg.Buckets[0].Stats["7d_7d"]

	// Drift and actual ROI average over both trades.
	assert.InDelta(t, 0.3, stats.MeanBetaDrift, 1e-9)
	assert.InDelta(t, 4, stats.MeanActualROI, 1e-9)
	// Prediction metrics average over the single trade that has them.
	require.NotNil(t, stats.MeanAbsPredictionError)
	assert.InDelta(t, 1, *stats.MeanAbsPredictionError, 1e-9)
	require.NotNil(t, stats.MeanPredictedROI)
	assert.InDelta(t, 3, *stats.MeanPredictedROI, 1e-9)
	require.NotNil(t, stats.MeanDaysToTarget)
	assert.InDelta(t, 4, *stats.MeanDaysToTarget, 1e-9)
	// Sharpe over actual returns {2, 6}: mean 4, population stddev 2.
	require.NotNil(t, stats.SharpeRatio)
	assert.InDelta(t, 2*math.Sqrt(365), *stats.SharpeRatio, 1e-9)
}
