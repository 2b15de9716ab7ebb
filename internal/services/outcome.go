package services

import (
	"math"

	"github.com/pairlens/pairlens-go/internal/models"
)

// OutcomeClassifier holds the pure win/ROI/Sharpe math applied to every
// sweep cell. No I/O, no state mutation; nil inputs propagate as nil
// outputs so absence of signal is never conflated with a definite loss.
type OutcomeClassifier struct {
	// WinTargetFloor is the minimum exit |z| threshold for a win.
	WinTargetFloor float64
	// WinDecayRatio is the fraction of entry |z| the signal must decay to.
	WinDecayRatio float64
	// AnnualizationDays scales per-trade Sharpe to an annual figure.
	AnnualizationDays float64
}

// NewOutcomeClassifier creates a classifier with the standard thresholds.
func NewOutcomeClassifier() *OutcomeClassifier {
	return &OutcomeClassifier{
		WinTargetFloor:    0.5,
		WinDecayRatio:     0.5,
		AnnualizationDays: 365,
	}
}

// IsWin reports whether the mean-reversion signal decayed to at least half
// its entry magnitude, floored at 0.5. Nil when either z-score is missing.
func (c *OutcomeClassifier) IsWin(entryZ, exitZ *float64) *bool {
	if entryZ == nil || exitZ == nil {
		return nil
	}
	target := math.Max(c.WinTargetFloor, math.Abs(*entryZ)*c.WinDecayRatio)
	win := math.Abs(*exitZ) <= target
	return &win
}

// PredictedROI estimates the return implied by the z-score decay under an
// exponential-return model of spread convergence, as a non-negative
// percentage. Zero when the signal did not decay; nil when any input is
// missing. The trade direction does not change the magnitude of the
// estimate and is kept for contract symmetry with the trade record.
func (c *OutcomeClassifier) PredictedROI(entryZ, exitZ, spreadStdDev *float64, _ models.TradeDirection) *float64 {
	if entryZ == nil || exitZ == nil || spreadStdDev == nil {
		return nil
	}
	absEntry := math.Abs(*entryZ)
	absExit := math.Abs(*exitZ)
	if absEntry <= absExit {
		zero := 0.0
		return &zero
	}
	zChange := absEntry - absExit
	spreadChange := zChange * *spreadStdDev
	roi := math.Abs(math.Exp(spreadChange)-1) * 100
	return &roi
}

// PredictionError returns the signed predicted-minus-actual ROI gap, nil
// when there is no prediction.
func (c *OutcomeClassifier) PredictionError(predictedROI *float64, actualROI float64) *float64 {
	if predictedROI == nil {
		return nil
	}
	diff := *predictedROI - actualROI
	return &diff
}

// DaysToTarget is the realized holding period, but only for trades the
// classifier itself calls a win. This is a realized time-to-target
// statistic, not a re-simulation.
func (c *OutcomeClassifier) DaysToTarget(win *bool, durationDays float64) *float64 {
	if win == nil || !*win {
		return nil
	}
	return &durationDays
}

// SharpeRatio annualizes a per-trade return series, treating each trade
// return as one daily-return sample (a stated modeling simplification).
// Nil for an empty series or zero population standard deviation.
func (c *OutcomeClassifier) SharpeRatio(returns []float64) *float64 {
	if len(returns) == 0 {
		return nil
	}
	m := mean(returns)
	sd := popStdDev(returns, m)
	if sd == 0 {
		return nil
	}
	sharpe := m / sd * math.Sqrt(c.AnnualizationDays)
	return &sharpe
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func popStdDev(values []float64, mean float64) float64 {
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
