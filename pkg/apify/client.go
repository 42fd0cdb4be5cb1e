// Package apify is a minimal client for the scraping platform's REST API:
// dataset item download and actor-run detail lookup.
package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.apify.com/v2"
	defaultPageSize = 1000
)

// Client accesses the scraping platform.
type Client interface {
	// DatasetItems downloads the full ordered item list of a dataset.
	DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error)
	// RunDetail fetches the platform's view of an actor run.
	RunDetail(ctx context.Context, runID string) (*RunDetail, error)
}

// RunDetail is the platform's record of one actor run.
type RunDetail struct {
	ID            string `json:"id"`
	ActID         string `json:"actId"`
	Status        string `json:"status"`
	StatusMessage string `json:"statusMessage"`
	ExitCode      int    `json:"exitCode"`
}

// FailureReason renders the most specific failure description available.
func (d *RunDetail) FailureReason() string {
	if d.StatusMessage != "" {
		return d.StatusMessage
	}
	return fmt.Sprintf("run finished with status %s (exit code %d)", d.Status, d.ExitCode)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageSize overrides the dataset pagination size.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimiter overrides the default request rate limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	token    string
	baseURL  string
	pageSize int
	limiter  *rate.Limiter
	http     *http.Client
}

// NewClient creates a platform API client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:    token,
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
		// The platform allows 30 req/s per token; stay well under it.
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DatasetItems pages through the dataset until a short page signals the
// end. Items keep their dataset order across pages.
func (c *httpClient) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	var items []map[string]any
	offset := 0

	for {
		url := fmt.Sprintf("%s/datasets/%s/items?format=json&clean=true&offset=%d&limit=%d",
			c.baseURL, datasetID, offset, c.pageSize)

		var page []map[string]any
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, eris.Wrapf(err, "apify: dataset %s items at offset %d", datasetID, offset)
		}

		items = append(items, page...)
		if len(page) < c.pageSize {
			return items, nil
		}
		offset += len(page)
	}
}

func (c *httpClient) RunDetail(ctx context.Context, runID string) (*RunDetail, error) {
	url := fmt.Sprintf("%s/actor-runs/%s", c.baseURL, runID)

	var envelope struct {
		Data RunDetail `json:"data"`
	}
	if err := c.getJSON(ctx, url, &envelope); err != nil {
		return nil, eris.Wrapf(err, "apify: run detail %s", runID)
	}
	return &envelope.Data, nil
}

func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
