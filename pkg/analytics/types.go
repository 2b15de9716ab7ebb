package analytics

// PairMetricsRequest is the body of a pair-metrics computation request to
// the analytics service.
type PairMetricsRequest struct {
	AssetA           string `json:"asset_a"`
	AssetB           string `json:"asset_b"`
	AtEpochMillis    int64  `json:"at_epoch_millis"`
	BetaWindowDays   int    `json:"beta_window_days"`
	ZScoreWindowDays int    `json:"zscore_window_days"`
}

// PairMetricsResponse is the analytics service's answer. A computation
// failure comes back with Error set and the metric fields absent.
type PairMetricsResponse struct {
	Beta         *float64 `json:"beta,omitempty"`
	ZScore       *float64 `json:"z_score,omitempty"`
	SpreadStdDev *float64 `json:"spread_std_dev,omitempty"`
	HalfLifeDays *float64 `json:"half_life_days,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ErrorResponse is the service's error envelope on non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the service health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
