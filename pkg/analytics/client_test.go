package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairlens/pairlens-go/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.ProviderConfig{ServiceURL: url, Timeout: 5})
}

func TestGetPairMetrics_Success(t *testing.T) {
	var captured PairMetricsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/v1/pair-metrics", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		beta := 1.23
		zScore := -0.5
		spread := 0.02
		halfLife := 4.2
		_ = json.NewEncoder(w).Encode(PairMetricsResponse{
			Beta:         &beta,
			ZScore:       &zScore,
			SpreadStdDev: &spread,
			HalfLifeDays: &halfLife,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	snapshot, err := client.GetPairMetrics(context.Background(), "ETH", "BTC", 1700000000000, 7, 14)

	require.NoError(t, err)
	assert.Equal(t, "ETH", captured.AssetA)
	assert.Equal(t, "BTC", captured.AssetB)
	assert.Equal(t, int64(1700000000000), captured.AtEpochMillis)
	assert.Equal(t, 7, captured.BetaWindowDays)
	assert.Equal(t, 14, captured.ZScoreWindowDays)

	require.NotNil(t, snapshot.Beta)
	assert.Equal(t, 1.23, *snapshot.Beta)
	require.NotNil(t, snapshot.HalfLifeDays)
	assert.Equal(t, 4.2, *snapshot.HalfLifeDays)
	assert.False(t, snapshot.Failed())
}

func TestGetPairMetrics_RateLimitedKeeps429InError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "rate limit exceeded"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	snapshot, err := client.GetPairMetrics(context.Background(), "ETH", "BTC", 1700000000000, 7, 14)

	require.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestGetPairMetrics_ServiceErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "series too short"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetPairMetrics(context.Background(), "ETH", "BTC", 1700000000000, 7, 14)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics service error (500)")
	assert.Contains(t, err.Error(), "series too short")
}

func TestGetPairMetrics_ComputationErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(PairMetricsResponse{Error: "insufficient history"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetPairMetrics(context.Background(), "ETH", "BTC", 1700000000000, 7, 14)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient history")
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "1.0.0"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	health, err := client.HealthCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := newTestClient("http://analytics:9000/")
	assert.Equal(t, "http://analytics:9000", client.BaseURL)
}
