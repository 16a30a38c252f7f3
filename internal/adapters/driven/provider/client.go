// Package provider holds the HTTP plumbing shared by the model provider
// adapters: request timeouts, client-side rate limiting and the mapping
// of provider failures onto domain errors.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is quoted in messages.
const maxErrorBody = 512

// Config configures a provider client.
type Config struct {
	// Name prefixes error messages (e.g., "ollama").
	Name string

	// Timeout bounds each request (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond limits the request rate. Zero or less means unlimited.
	RequestsPerSecond float64

	// Fallback is the error returned for failures that are neither
	// transient nor authentication problems (default: domain.ErrEmbeddingBackend).
	Fallback error

	// HTTPClient overrides the underlying client. Its timeout is replaced.
	HTTPClient *http.Client
}

// Client sends JSON requests to a model provider.
type Client struct {
	name     string
	http     *http.Client
	limiter  *rate.Limiter
	fallback error
}

// NewClient creates a provider client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Fallback == nil {
		cfg.Fallback = domain.ErrEmbeddingBackend
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		hc = &clone
	}
	hc.Timeout = cfg.Timeout

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		name:     cfg.Name,
		http:     hc,
		limiter:  rate.NewLimiter(limit, 1),
		fallback: cfg.Fallback,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Request describes one JSON call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is marshalled as JSON when non-nil.
	Body any
}

// Do sends the request and decodes a 2xx JSON response into out.
// Out may be nil to discard the body.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	var body io.Reader = http.NoBody
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
		body = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", c.name, c.classifyTransport(ctx, err))
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.name, err)
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.name, c.classifyTransport(ctx, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.name, c.classifyTransport(ctx, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", c.fallback, c.name, err)
	}
	return nil
}

func (c *Client) statusError(status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("%w: %s: status %d: %s", ClassifyStatus(status, c.fallback), c.name, status, bytes.TrimSpace(body))
}

// classifyTransport maps a failed round trip onto a domain error.
// Caller cancellation is passed through untouched so it is never retried.
func (c *Client) classifyTransport(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return ClassifyTransport(err, c.fallback)
}

// ClassifyStatus maps an HTTP status to a domain sentinel.
// Rate limits and server errors are transient; 401 and 403 are
// authentication failures; anything else is the fallback.
func ClassifyStatus(status int, fallback error) error {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return domain.ErrTransientBackend
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrAuthentication
	default:
		return fallback
	}
}

// ClassifyTransport wraps a network-level failure. Timeouts and connection
// failures are transient.
func ClassifyTransport(err error, fallback error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", domain.ErrTransientBackend, err)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return fmt.Errorf("%w: %w", domain.ErrTransientBackend, err)
	default:
		return fmt.Errorf("%w: %w", fallback, err)
	}
}
