package analytics

import (
	"context"

	"github.com/pairlens/pairlens-go/internal/models"
)

// MetricsProvider supplies beta/z-score/half-life/spread metrics for an
// asset pair at a point in time under one window configuration. The provider
// is contractually idempotent for identical arguments, which is what makes
// both retrying and caching sound. Implementations may fail transiently or
// signal rate limiting through the returned error's text.
type MetricsProvider interface {
	GetPairMetrics(ctx context.Context, assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int) (*models.MetricsSnapshot, error)
}
