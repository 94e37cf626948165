// Package eventful provides a client for the Eventful event search API.
package eventful

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepanel/homepanel/internal/events"
	"github.com/homepanel/homepanel/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Eventful JSON API.
	DefaultBaseURL = "http://api.eventful.com/json"

	// ProviderName identifies this provider.
	ProviderName = "eventful"
)

// ClientConfig holds configuration for the Eventful client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// AppKey is the Eventful application key.
	AppKey string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry, if set, tracks the default resilient client's health.
	Registry *resilience.Registry

	// Logger receives circuit breaker state changes of the default client.
	Logger zerolog.Logger

	// Timeout for individual API requests (default: 15s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an Eventful API client.
type Client struct {
	baseURL    string
	appKey     string
	httpClient HTTPDoer
}

// NewClient creates a new Eventful client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		cb := resilience.DefaultCircuitBreakerConfig(ProviderName)
		cb.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:              ProviderName,
			Timeout:           timeout,
			MaxRetries:        2,
			InitialInterval:   500 * time.Millisecond,
			MaxInterval:       5 * time.Second,
			CircuitBreaker:    &cb,
			RequestsPerSecond: 1,
			Burst:             2,
			Registry:          cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appKey:     cfg.AppKey,
		httpClient: httpClient,
	}
}

// API response types (from the Eventful API).

type searchResponse struct {
	TotalItems  string     `json:"total_items"`
	Events      *eventList `json:"events"`
	Error       string     `json:"error"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
}

type eventList struct {
	Event eventItems `json:"event"`
}

type eventItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
}

// eventItems accepts either a list of events or, when the search matched
// exactly one, a bare event object.
type eventItems []eventItem

func (e *eventItems) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = nil
		return nil
	}

	if data[0] == '{' {
		var single eventItem
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*e = eventItems{single}
		return nil
	}

	var list []eventItem
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*e = list
	return nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchVenue returns the next pageSize events at a venue, sorted by date.
func (c *Client) SearchVenue(ctx context.Context, venueID string, pageSize int) ([]events.Event, error) {
	if venueID == "" {
		return nil, fmt.Errorf("venue id is required")
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	params := url.Values{
		"app_key":    {c.appKey},
		"location":   {venueID},
		"page_size":  {strconv.Itoa(pageSize)},
		"sort_order": {"date"},
	}
	endpoint := fmt.Sprintf("%s/events/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from events search", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}

	// The API reports failures such as a bad app key with a 200 status.
	if result.Error != "" {
		return nil, fmt.Errorf("events search error: %s: %s", result.Status, result.Description)
	}

	return toEvents(result.Events), nil
}

func toEvents(list *eventList) []events.Event {
	if list == nil {
		return nil
	}

	out := make([]events.Event, 0, len(list.Event))
	for _, item := range list.Event {
		out = append(out, events.Event{
			Title:     item.Title,
			StartTime: item.StartTime,
		})
	}
	return out
}
