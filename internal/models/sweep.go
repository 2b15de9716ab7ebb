package models

import (
	"fmt"
	"time"
)

// WindowConfig is one cell of the sweep grid: a beta estimation window and a
// z-score window, both in days.
type WindowConfig struct {
	BetaWindowDays   int `json:"beta_window_days"`
	ZScoreWindowDays int `json:"zscore_window_days"`
}

// Key returns the deterministic identifier used to index combination maps,
// e.g. "7d_14d".
func (w WindowConfig) Key() string {
	return fmt.Sprintf("%dd_%dd", w.BetaWindowDays, w.ZScoreWindowDays)
}

// Less orders configs beta-window ascending, then z-score window ascending.
// This is the canonical sweep iteration order and the ranking tie-break.
func (w WindowConfig) Less(other WindowConfig) bool {
	if w.BetaWindowDays != other.BetaWindowDays {
		return w.BetaWindowDays < other.BetaWindowDays
	}
	return w.ZScoreWindowDays < other.ZScoreWindowDays
}

// MetricsSnapshot is the result of one analytics-provider call for an asset
// pair at a point in time under one window configuration. A failed call is
// still a snapshot: Error is set and the metric fields are nil.
type MetricsSnapshot struct {
	Beta         *float64 `json:"beta,omitempty"`
	ZScore       *float64 `json:"z_score,omitempty"`
	SpreadStdDev *float64 `json:"spread_std_dev,omitempty"`
	HalfLifeDays *float64 `json:"half_life_days,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Failed reports whether the snapshot carries an error instead of metrics.
func (s *MetricsSnapshot) Failed() bool {
	return s.Error != ""
}

// ComboResult is the outcome of replaying one trade under one window
// configuration. Every cell of the trade x combination matrix produces one,
// error or not.
type ComboResult struct {
	Config          WindowConfig `json:"config"`
	BetaAtEntry     *float64     `json:"beta_at_entry,omitempty"`
	BetaAtExit      *float64     `json:"beta_at_exit,omitempty"`
	BetaDrift       *float64     `json:"beta_drift,omitempty"`
	PredictedROI    *float64     `json:"predicted_roi,omitempty"`
	ActualROI       float64      `json:"actual_roi"`
	PredictionError *float64     `json:"prediction_error,omitempty"`
	Win             *bool        `json:"win,omitempty"`
	DaysToTarget    *float64     `json:"days_to_target,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// TradeSweepResult is one trade plus its reference half-life and the full
// mapping of window-config key to ComboResult.
type TradeSweepResult struct {
	Trade             HistoricalTrade        `json:"trade"`
	ReferenceHalfLife *float64               `json:"reference_half_life,omitempty"`
	Combos            map[string]ComboResult `json:"combos"`
}

// ComboStats is the per-(bucket, combination) summary computed by the
// aggregator. Only trades whose ComboResult is error-free with a non-nil
// beta drift count toward TradeCount; the remaining means are over whatever
// non-nil values those trades carry.
type ComboStats struct {
	Config                 WindowConfig `json:"config"`
	TradeCount             int          `json:"trade_count"`
	MeanBetaDrift          float64      `json:"mean_beta_drift"`
	MeanAbsPredictionError *float64     `json:"mean_abs_prediction_error,omitempty"`
	MeanPredictedROI       *float64     `json:"mean_predicted_roi,omitempty"`
	MeanActualROI          float64      `json:"mean_actual_roi"`
	WinRatePct             float64      `json:"win_rate_pct"`
	MeanDaysToTarget       *float64     `json:"mean_days_to_target,omitempty"`
	SharpeRatio            *float64     `json:"sharpe_ratio,omitempty"`
}

// SkippedTrade records a trade excluded from every half-life bucket.
type SkippedTrade struct {
	PairSymbol string `json:"pair_symbol"`
	Reason     string `json:"reason"`
}

// RunSummary is the operator-facing outcome of one sweep run.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	TotalTrades   int           `json:"total_trades"`
	UsableTrades  int           `json:"usable_trades"`
	SkippedTrades int           `json:"skipped_trades"`
	ProviderCalls int64         `json:"provider_calls"`
	CacheHits     int64         `json:"cache_hits"`
	ReportPath    string        `json:"report_path"`
}
