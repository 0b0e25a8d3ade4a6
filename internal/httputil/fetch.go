// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Fetcher performs a GET request and returns the status code and body.
// A non-2xx status is not an error; transport failures are.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (status int, body []byte, err error)
}

// Client implements Fetcher over net/http. One Client is shared by all
// concurrent searches so the rate limit applies across goroutines.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewClient builds a Client from the search settings. A RateLimitRPS of zero
// disables throttling.
func NewClient(cfg types.SearchConfig, logger *zap.Logger) *Client {
	c := &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		logger:     logging.OrNop(logger),
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	return c
}

// Fetch waits for the rate limiter, issues the request with 429 backoff, and
// reads at most 1 MiB of the body.
func (c *Client) Fetch(ctx context.Context, url string, header http.Header) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
