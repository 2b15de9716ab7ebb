package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairlens/pairlens-go/internal/models"
)

func f64(v float64) *float64 {
	return &v
}

func TestOutcomeClassifier_IsWin(t *testing.T) {
	classifier := NewOutcomeClassifier()

	t.Run("signal decayed past target", func(t *testing.T) {
		// target = max(0.5, 1.0) = 1.0; |0.9| <= 1.0
		win := classifier.IsWin(f64(2.0), f64(0.9))
		require.NotNil(t, win)
		assert.True(t, *win)
	})

	t.Run("signal did not decay enough", func(t *testing.T) {
		// target = 1.0; |1.5| > 1.0
		win := classifier.IsWin(f64(2.0), f64(1.5))
		require.NotNil(t, win)
		assert.False(t, *win)
	})

	t.Run("floor applies for weak entries", func(t *testing.T) {
		// target = max(0.5, 0.3) = 0.5
		win := classifier.IsWin(f64(0.6), f64(0.45))
		require.NotNil(t, win)
		assert.True(t, *win)
	})

	t.Run("negative z-scores compare by magnitude", func(t *testing.T) {
		win := classifier.IsWin(f64(-2.0), f64(-0.9))
		require.NotNil(t, win)
		assert.True(t, *win)
	})

	t.Run("missing inputs yield nil, not loss", func(t *testing.T) {
		assert.Nil(t, classifier.IsWin(nil, f64(1.0)))
		assert.Nil(t, classifier.IsWin(f64(1.0), nil))
	})
}

func TestOutcomeClassifier_PredictedROI(t *testing.T) {
	classifier := NewOutcomeClassifier()

	t.Run("exponential convergence model", func(t *testing.T) {
		// zChange=1.0, spreadChange=0.02, |exp(0.02)-1|*100
		roi := classifier.PredictedROI(f64(2.0), f64(1.0), f64(0.02), models.DirectionLong)
		require.NotNil(t, roi)
		assert.InDelta(t, 2.0202, *roi, 0.001)
	})

	t.Run("no decay returns zero", func(t *testing.T) {
		roi := classifier.PredictedROI(f64(1.0), f64(1.5), f64(0.02), models.DirectionLong)
		require.NotNil(t, roi)
		assert.Equal(t, 0.0, *roi)
	})

	t.Run("equal magnitudes return zero", func(t *testing.T) {
		roi := classifier.PredictedROI(f64(1.0), f64(-1.0), f64(0.02), models.DirectionShort)
		require.NotNil(t, roi)
		assert.Equal(t, 0.0, *roi)
	})

	t.Run("missing inputs yield nil", func(t *testing.T) {
		assert.Nil(t, classifier.PredictedROI(nil, f64(1.0), f64(0.02), models.DirectionLong))
		assert.Nil(t, classifier.PredictedROI(f64(2.0), nil, f64(0.02), models.DirectionLong))
		assert.Nil(t, classifier.PredictedROI(f64(2.0), f64(1.0), nil, models.DirectionLong))
	})

	t.Run("always non-negative", func(t *testing.T) {
		roi := classifier.PredictedROI(f64(-3.0), f64(0.2), f64(0.05), models.DirectionShort)
		require.NotNil(t, roi)
		assert.GreaterOrEqual(t, *roi, 0.0)
	})
}

func TestOutcomeClassifier_PredictionError(t *testing.T) {
	classifier := NewOutcomeClassifier()

	diff := classifier.PredictionError(f64(2.5), 1.8)
	require.NotNil(t, diff)
	assert.InDelta(t, 0.7, *diff, 1e-9)

	// Signed: underprediction goes negative.
	diff = classifier.PredictionError(f64(1.0), 1.8)
	require.NotNil(t, diff)
	assert.InDelta(t, -0.8, *diff, 1e-9)

	assert.Nil(t, classifier.PredictionError(nil, 1.8))
}

func TestOutcomeClassifier_DaysToTarget(t *testing.T) {
	classifier := NewOutcomeClassifier()

	win := true
	loss := false

	days := classifier.DaysToTarget(&win, 4.5)
	require.NotNil(t, days)
	assert.Equal(t, 4.5, *days)

	assert.Nil(t, classifier.DaysToTarget(&loss, 4.5))
	assert.Nil(t, classifier.DaysToTarget(nil, 4.5))
}

func TestOutcomeClassifier_SharpeRatio(t *testing.T) {
	classifier := NewOutcomeClassifier()

	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, classifier.SharpeRatio(nil))
		assert.Nil(t, classifier.SharpeRatio([]float64{}))
	})

	t.Run("zero variance", func(t *testing.T) {
		assert.Nil(t, classifier.SharpeRatio([]float64{1, 1, 1}))
	})

	t.Run("zero mean with variance is zero, not nil", func(t *testing.T) {
		sharpe := classifier.SharpeRatio([]float64{1, -1})
		require.NotNil(t, sharpe)
		assert.Equal(t, 0.0, *sharpe)
	})

	t.Run("annualized by sqrt(365)", func(t *testing.T) {
		// mean 2, population stddev 1
		sharpe := classifier.SharpeRatio([]float64{1, 3})
		require.NotNil(t, sharpe)
		assert.InDelta(t, 2*math.Sqrt(365), *sharpe, 1e-9)
	})
}
