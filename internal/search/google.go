package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dassyor/config"
	"dassyor/internal/util"
	"dassyor/pkg/circuitbreaker"
	"dassyor/pkg/metrics"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries Google Custom Search behind a circuit breaker.
type Client struct {
	cfg        config.SearchConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewClient(cfg config.SearchConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

type searchResponse struct {
	Items []Result `json:"items"`
}

// Search returns up to depth results for the query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	var results []Result

	start := time.Now()
	err := c.breaker.Execute(func() error {
		var innerErr error
		results, innerErr = c.doSearch(ctx, query)
		return innerErr
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordExternalCallLatency("google_search", status, time.Since(start))

	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) doSearch(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.cfg.Depth))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("google search overloaded: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, util.Permanent(fmt.Errorf("google search rejected: status %d", resp.StatusCode))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return body.Items, nil
}
