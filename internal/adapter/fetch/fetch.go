// Package fetch provides the retrying HTTP GET shared by the source
// adapters.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryableStatus lists the upstream statuses worth another attempt.
// Anything else non-2xx fails immediately.
var retryableStatus = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
	521:                            {}, // origin down (Cloudflare)
}

const maxRetries = 2 // 3 attempts total

// Client wraps an http.Client with bounded exponential retry.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a fetch client. A zero timeout disables the per-request
// deadline; callers should still pass a context.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Get issues a GET for url and returns the response body. Transport errors
// and retryable statuses back off and retry up to two more times; other
// non-2xx statuses fail at once.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 1.5
	bo.RandomizationFactor = 0

	attempt := 0
	body, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		b, err := c.getOnce(ctx, url)
		if err != nil {
			c.logger.Warn("fetch attempt failed",
				"url", url, "attempt", attempt, "error", err)
		}
		return b, err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if _, retryable := retryableStatus[resp.StatusCode]; retryable {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
