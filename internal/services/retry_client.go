package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pairlens/pairlens-go/internal/models"
	"github.com/pairlens/pairlens-go/pkg/analytics"
)

// ErrMaxRetriesExceeded is the error marker recorded on a snapshot once the
// retry budget is spent.
const ErrMaxRetriesExceeded = "max retries exceeded"

// errorClass is the retry policy's view of a provider failure.
type errorClass int

const (
	errTransient errorClass = iota
	errRateLimited
)

// RetryPolicy defines retry behavior for failed provider calls.
type RetryPolicy struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	RateLimitCooldown time.Duration
}

// SleepFunc abstracts blocking waits so tests can run without real delays.
// It returns the context error when the wait is interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryingMetricsClient is the only component that talks to the unreliable
// analytics provider. All failure crosses this boundary as data: the client
// never returns an error, only snapshots whose Error field may be set.
type RetryingMetricsClient struct {
	provider analytics.MetricsProvider
	policy   RetryPolicy
	sleep    SleepFunc
	logger   *logrus.Entry
	calls    atomic.Int64
}

// NewRetryingMetricsClient creates a retrying client around a provider.
func NewRetryingMetricsClient(provider analytics.MetricsProvider, policy RetryPolicy, logger *logrus.Logger) *RetryingMetricsClient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingMetricsClient{
		provider: provider,
		policy:   policy,
		sleep:    ContextSleep,
		logger:   logger.WithField("component", "metrics_client"),
	}
}

// SetSleep replaces the wait function. Tests use this to observe delays
// instead of serving them.
func (c *RetryingMetricsClient) SetSleep(sleep SleepFunc) {
	c.sleep = sleep
}

// Calls returns how many provider calls were issued, retries included.
func (c *RetryingMetricsClient) Calls() int64 {
	return c.calls.Load()
}

// FetchMetrics fetches pair metrics with bounded retry. Rate-limited
// failures wait the cooldown before the next attempt; other failures wait a
// backoff growing with the attempt index. Exhausting the budget yields a
// snapshot marked "max retries exceeded".
func (c *RetryingMetricsClient) FetchMetrics(ctx context.Context, assetA, assetB string, at time.Time, betaWindowDays, zScoreWindowDays int) *models.MetricsSnapshot {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &models.MetricsSnapshot{Error: err.Error()}
		}

		c.calls.Add(1)
		snapshot, err := c.provider.GetPairMetrics(ctx, assetA, assetB, at.UnixMilli(), betaWindowDays, zScoreWindowDays)
		if err == nil {
			return snapshot
		}
		lastErr = err

		if attempt == c.policy.MaxAttempts {
			break
		}

		wait := c.backoff(attempt)
		class := classifyError(err)
		if class == errRateLimited {
			wait = c.policy.RateLimitCooldown
		}

		c.logger.WithFields(logrus.Fields{
			"pair":         assetA + "/" + assetB,
			"beta_window":  betaWindowDays,
			"z_window":     zScoreWindowDays,
			"attempt":      attempt,
			"rate_limited": class == errRateLimited,
			"wait":         wait,
			"error":        err.Error(),
		}).Warn("Metrics fetch failed, retrying")

		if err := c.sleep(ctx, wait); err != nil {
			return &models.MetricsSnapshot{Error: err.Error()}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"pair":     assetA + "/" + assetB,
		"attempts": c.policy.MaxAttempts,
		"error":    lastErr.Error(),
	}).Error("Metrics fetch failed after all retries")

	return &models.MetricsSnapshot{Error: ErrMaxRetriesExceeded}
}

func (c *RetryingMetricsClient) backoff(attempt int) time.Duration {
	return c.policy.BackoffBase * time.Duration(attempt)
}

// classifyError sorts provider failures into rate-limited vs transient by
// pattern-matching the provider's error text, per its interface contract.
func classifyError(err error) errorClass {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429") {
		return errRateLimited
	}
	return errTransient
}
