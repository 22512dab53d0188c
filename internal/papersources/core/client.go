// Package core implements a search client for the CORE open-access aggregator
// (https://core.ac.uk) v3 API.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/papersources"
)

const (
	// DefaultBaseURL is the default CORE API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit is the default rate limit for requests per second.
	// CORE's registered tier allows 10 requests per 10 seconds in bursts.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName identifies the provider in logs and metrics.
	SourceName = "core"

	searchPath = "/search/works"
)

// Config holds configuration for the CORE client.
type Config struct {
	// BaseURL is the CORE API base URL.
	BaseURL string

	// APIKey is the bearer token issued by CORE. Empty means unconfigured.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on 429 and 5xx. Defaults to none.
	MaxRetries int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client searches CORE and returns the raw response body.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.SearchSource = (*Client)(nil)

// New creates a CORE client with its own rate-limited HTTP client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			BurstSize:  cfg.BurstSize,
			MaxRetries: cfg.MaxRetries,
		}),
	}
}

// NewWithHTTPClient creates a CORE client around an existing HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Name implements papersources.SearchSource.
func (c *Client) Name() string { return SourceName }

// IsConfigured implements papersources.SearchSource.
func (c *Client) IsConfigured() bool { return c.config.APIKey != "" }

// SearchRaw posts {q, limit, offset} to the works search endpoint with the
// bearer credential and returns the response body unchanged.
func (c *Client) SearchRaw(ctx context.Context, params papersources.SearchParams) (*papersources.RawResult, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("core search: %w", domain.ErrMissingCredential)
	}

	start := time.Now()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.PostJSON(ctx, c.config.BaseURL+searchPath, SearchRequest{
		Query:  params.Query,
		Limit:  params.EffectiveLimit(),
		Offset: params.Offset,
	}, headers)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var apiErr errorResponse
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		cause := domain.ErrServiceUnavailable
		if resp.StatusCode == http.StatusTooManyRequests {
			cause = domain.ErrRateLimited
		}
		return nil, domain.NewExternalAPIError("CORE", resp.StatusCode, msg, cause)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if !json.Valid(body) {
		return nil, domain.NewExternalAPIError("CORE", resp.StatusCode, "response is not valid JSON", domain.ErrServiceUnavailable)
	}

	return &papersources.RawResult{
		Body:     body,
		Source:   SourceName,
		Duration: time.Since(start),
	}, nil
}
