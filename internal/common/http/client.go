// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"

	"cx-agent-builder/internal/common/logger"
)

// Client is the outbound HTTP client used for LLM calls. It satisfies the
// Do-based doer interfaces of the SDKs it is handed to.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fields := map[string]interface{}{
		"method":      req.Method,
		"host":        req.URL.Host,
		"path":        req.URL.Path,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.logger.WithError(err).Warn("Outbound request failed", fields)
		return nil, err
	}
	fields["status"] = resp.StatusCode
	c.logger.Debug("Outbound request completed", fields)
	return resp, nil
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}
