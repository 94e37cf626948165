// Package kaiterra provides a client for the Kaiterra device API.
package kaiterra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepanel/homepanel/internal/airquality"
	"github.com/homepanel/homepanel/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Kaiterra REST v1 API.
	DefaultBaseURL = "https://api.kaiterra.cn/v1"

	// ProviderName identifies this provider.
	ProviderName = "kaiterra"

	// timestampLayout is the device timestamp format (RFC3339, always UTC).
	timestampLayout = "2006-01-02T15:04:05Z"
)

// ClientConfig holds configuration for the Kaiterra client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is the URL key created in the Kaiterra dashboard, sent as the
	// "key" query parameter.
	APIKey string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry, if set, tracks the default resilient client's health.
	Registry *resilience.Registry

	// Logger receives circuit breaker state changes of the default client.
	Logger zerolog.Logger

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Kaiterra API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a new Kaiterra client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		cb := resilience.DefaultCircuitBreakerConfig(ProviderName)
		cb.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			CircuitBreaker:  &cb,
			Registry:        cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// API response types (from the Kaiterra API).

type laserEggResponse struct {
	ID     string      `json:"id"`
	Latest *latestData `json:"info.aqi"`
}

type latestData struct {
	Timestamp string         `json:"ts"`
	Data      map[string]any `json:"data"`
}

// empty reports whether the device has uploaded nothing: the latest
// object is absent, null or {}.
func (l *latestData) empty() bool {
	return l == nil || (l.Timestamp == "" && len(l.Data) == 0)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// LatestReading fetches the most recent reading uploaded by a Laser Egg.
// Returns airquality.ErrNoData when the device has not uploaded anything yet.
func (c *Client) LatestReading(ctx context.Context, deviceID string) (*airquality.Reading, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	endpoint := fmt.Sprintf("%s/lasereggs/%s?%s",
		c.baseURL, url.PathEscape(deviceID), url.Values{"key": {c.apiKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch laser egg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from lasereggs endpoint", resp.StatusCode)
	}

	var result laserEggResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode laser egg response: %w", err)
	}

	if result.Latest.empty() {
		return nil, airquality.ErrNoData
	}

	return toReading(deviceID, result.Latest)
}

// toReading converts API data to a domain Reading.
// Non-numeric values in the data map are skipped.
func toReading(deviceID string, latest *latestData) (*airquality.Reading, error) {
	measuredAt, err := time.Parse(timestampLayout, latest.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse reading timestamp %q: %w", latest.Timestamp, err)
	}

	sample := make(airquality.Sample, len(latest.Data))
	for key, raw := range latest.Data {
		if v, ok := raw.(float64); ok {
			sample[airquality.Pollutant(key)] = v
		}
	}

	return &airquality.Reading{
		DeviceID:   deviceID,
		MeasuredAt: measuredAt.UTC(),
		Sample:     sample,
	}, nil
}
