package denied

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultURL is the hosted Denied endpoint used when neither an
	// explicit URL nor DENIED_URL is provided.
	DefaultURL = "https://api.denied.dev"

	// DefaultTimeout is the general-purpose request timeout. Latency-
	// sensitive callers (tool interception) should configure a much
	// shorter one.
	DefaultTimeout = 60 * time.Second

	// DefaultPathPrefix prefixes the check endpoints. Deployments that
	// serve plain /check can set an empty prefix via WithPathPrefix.
	DefaultPathPrefix = "/pdp"

	apiKeyHeader = "X-API-Key"
)

// HTTPStatusError is returned when the service responds with a non-2xx
// status. The body is kept for diagnostics (logs), not for end users.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("denied: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets the base URL of the Denied service.
func WithURL(url string) Option {
	return func(c *Client) { c.url = strings.TrimRight(url, "/") }
}

// WithAPIKey sets the API key sent in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithPathPrefix sets the path prefix for the check endpoints
// (default "/pdp", so checks go to /pdp/check and /pdp/check/bulk).
func WithPathPrefix(prefix string) Option {
	return func(c *Client) { c.pathPrefix = strings.TrimRight(prefix, "/") }
}

// WithHTTPClient replaces the underlying HTTP client. The caller keeps
// ownership of the passed client's transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client performs authorization checks against a Denied decision
// service. It owns a persistent connection pool and is safe for
// concurrent use; call Close exactly once when done.
type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	pathPrefix string
	http       *http.Client
	closeOnce  sync.Once
}

// NewClient builds a Client. Resolution order for URL and API key:
// explicit option, then DENIED_URL / DENIED_API_KEY environment
// variables, then the hosted default URL.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:    DefaultTimeout,
		pathPrefix: DefaultPathPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.url == "" {
		c.url = strings.TrimRight(envOrDefault("DENIED_URL", DefaultURL), "/")
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("DENIED_API_KEY")
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Close releases the client's idle connections. Safe to call once per
// client; further use of the client after Close is undefined.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.http.CloseIdleConnections()
	})
}

// Check verifies whether subject may perform action on resource.
// Subject, action, and resource accept the coercion formats described on
// CoerceSubject / CoerceAction / CoerceResource.
func (c *Client) Check(ctx context.Context, subject, action, resource any, reqCtx map[string]any) (*CheckResponse, error) {
	req, err := NewCheckRequest(subject, action, resource, reqCtx)
	if err != nil {
		return nil, err
	}
	return c.CheckRequest(ctx, req)
}

// CheckRequest performs a single check with a pre-built request.
func (c *Client) CheckRequest(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp CheckResponse
	if err := c.post(ctx, c.pathPrefix+"/check", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BulkCheck performs a batch of checks in one round trip. The returned
// responses correspond positionally to the requests; the batch succeeds
// or fails as a whole.
func (c *Client) BulkCheck(ctx context.Context, reqs []*CheckRequest) ([]*CheckResponse, error) {
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("bulk check request %d: %w", i, err)
		}
	}
	var resps []*CheckResponse
	if err := c.post(ctx, c.pathPrefix+"/check/bulk", reqs, &resps); err != nil {
		return nil, err
	}
	if len(resps) != len(reqs) {
		return nil, fmt.Errorf("denied: bulk check returned %d responses for %d requests", len(resps), len(reqs))
	}
	return resps, nil
}

// post serializes body, issues the request, and decodes a success
// response into out. Non-2xx statuses become *HTTPStatusError carrying
// the response body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("denied: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("denied: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("denied: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("denied: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("denied: decode response: %w", err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
