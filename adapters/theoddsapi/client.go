package theoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com"
	apiVersion     = "v4"
	userAgent      = "Janus/1.0 (Fortuna Line Tracker)"
	timeout        = 10 * time.Second
	maxRetries     = 3
	retryDelay     = 2 * time.Second
)

// Client implements the VendorAdapter interface for The Odds API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	rateLimits *models.RateLimits
	mu         sync.RWMutex
}

// Ensure Client implements VendorAdapter
var _ contracts.VendorAdapter = (*Client)(nil)

// NewClient creates a new The Odds API client
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom base URL, used by
// tests to point at an httptest server
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimits: &models.RateLimits{
			RequestsRemaining: 500, // Default quota
			RequestsUsed:      0,
		},
	}
}

// FetchEvents retrieves upcoming events without odds (for discovery)
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]models.EventInfo, error) {
	endpoint := fmt.Sprintf("%s/%s/sports/%s/events", c.baseURL, apiVersion, sport)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("dateFormat", "iso")

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.doRequestWithRetry(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch events failed: %w", err)
	}

	var apiResp []eventResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}

	return c.parseEventsResponse(apiResp), nil
}

// FetchMarketDocument retrieves one event's odds for a single prop market.
// The raw response body is returned untouched: it becomes Snapshot.Raw and
// the Normalizer owns its interpretation.
func (c *Client) FetchMarketDocument(ctx context.Context, opts *models.FetchMarketOptions) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/%s/sports/%s/events/%s/odds", c.baseURL, apiVersion, opts.Sport, opts.EventID)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", strings.Join(opts.Regions, ","))
	params.Set("markets", string(opts.Market))
	params.Set("oddsFormat", "decimal")
	params.Set("dateFormat", "iso")

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.doRequestWithRetry(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch market document failed: %w", err)
	}

	return json.RawMessage(body), nil
}

// SupportsMarket checks if this adapter supports a given market
func (c *Client) SupportsMarket(market string) bool {
	supportedMarkets := map[string]bool{
		"player_points":   true,
		"player_rebounds": true,
		"player_assists":  true,
	}
	return supportedMarkets[market]
}

// GetRateLimits returns current rate limit information
func (c *Client) GetRateLimits() *models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimits
}

// doRequestWithRetry performs HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}

		lastErr = err

		// Don't retry on client errors (4xx except 429)
		if httpErr, ok := err.(*httpError); ok {
			if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != 429 {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Update rate limits from headers
	c.updateRateLimits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// updateRateLimits extracts rate limit info from response headers
func (c *Client) updateRateLimits(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remaining := headers.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimits.RequestsRemaining = val
		}
	}

	if used := headers.Get("x-requests-used"); used != "" {
		if val, err := strconv.Atoi(used); err == nil {
			c.rateLimits.RequestsUsed = val
		}
	}
}

// parseEventsResponse converts API response to internal EventInfo format
func (c *Client) parseEventsResponse(apiResp []eventResponse) []models.EventInfo {
	events := make([]models.EventInfo, 0, len(apiResp))

	for _, evt := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, evt.CommenceTime)
		if err != nil {
			continue // Skip invalid events
		}

		events = append(events, models.EventInfo{
			ID:           evt.ID,
			HomeTeam:     evt.HomeTeam,
			AwayTeam:     evt.AwayTeam,
			CommenceTime: commenceTime,
		})
	}

	return events
}

// httpError represents an HTTP error with status code
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// API response structure matching The Odds API events endpoint

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	SportTitle   string `json:"sport_title"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}
