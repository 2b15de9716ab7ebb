package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pairlens/pairlens-go/internal/config"
	"github.com/pairlens/pairlens-go/internal/models"
)

// Client is the HTTP client for the pair-analytics service.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	timeout    time.Duration
}

// NewClient creates a new analytics client instance.
func NewClient(cfg *config.ProviderConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.ServiceURL, "/"),
		timeout: timeout,
	}
}

// HealthCheck checks if the analytics service is healthy.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var response HealthResponse
	err := c.makeRequest(ctx, "GET", "/health", nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetPairMetrics computes pair metrics at a point in time under the given
// window configuration. A service-side computation failure (Error set in the
// 2xx body) is returned as a Go error so the caller's retry policy sees it.
func (c *Client) GetPairMetrics(ctx context.Context, assetA, assetB string, atEpochMillis int64, betaWindowDays, zScoreWindowDays int) (*models.MetricsSnapshot, error) {
	req := PairMetricsRequest{
		AssetA:           assetA,
		AssetB:           assetB,
		AtEpochMillis:    atEpochMillis,
		BetaWindowDays:   betaWindowDays,
		ZScoreWindowDays: zScoreWindowDays,
	}

	var response PairMetricsResponse
	if err := c.makeRequest(ctx, "POST", "/api/v1/pair-metrics", req, &response); err != nil {
		return nil, err
	}

	if response.Error != "" {
		return nil, fmt.Errorf("pair metrics computation failed: %s", response.Error)
	}

	return &models.MetricsSnapshot{
		Beta:         response.Beta,
		ZScore:       response.ZScore,
		SpreadStdDev: response.SpreadStdDev,
		HalfLifeDays: response.HalfLifeDays,
	}, nil
}

// makeRequest is a helper method to make HTTP requests to the analytics
// service. Non-2xx statuses become errors carrying the service's error
// envelope text; 429 responses keep "429" in the message so retry policies
// can classify them as rate limiting.
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PairLens-Go/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return fmt.Errorf("analytics service error (%d): %s", resp.StatusCode, errorResp.Error)
		}
		return fmt.Errorf("analytics service error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
