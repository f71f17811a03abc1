// Package fetch downloads upstream artifacts over HTTP. Every download runs
// inside the standard retry policy, so a flaky upstream or a dropped
// connection costs a few backoff sleeps instead of a failed pipeline run.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/folimar/geopanda/internal/retry"
	"github.com/folimar/geopanda/pkg/types"
)

// defaultTimeout bounds a single download attempt. Retries get a fresh
// timeout each.
const defaultTimeout = 10 * time.Second

// Client downloads URLs with bounded retry.
type Client struct {
	http   *http.Client
	policy retry.Policy
	logger *zap.Logger
}

// New returns a Client using the given retry policy. timeout bounds each
// attempt; zero selects the default.
func New(policy retry.Policy, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		policy: policy,
		logger: logger,
	}
}

// Get downloads url and returns the response body. Any non-2xx status is an
// error and consumes a retry attempt like a transport failure would.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.policy.Do(ctx, "GET "+url, func() error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Entry downloads one manifest entry. It has the diff-sync Fetcher shape.
func (c *Client) Entry(ctx context.Context, entry types.ManifestEntry) ([]byte, error) {
	return c.Get(ctx, entry.Href)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
