// Package api is the typed HTTP client for the go-splitwise backend.
//
// Every call is JSON over HTTP(S) against a configurable origin and carries the
// session cookie from the client's cookie jar; the client never holds a token
// or secret itself. Non-2xx responses are returned as *StatusError so callers
// can map status codes to user-facing messages.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vishal1807gupta/go-splitwise/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 64 << 10

	requestIDHeader = "X-Request-ID"
)

// Client calls the backend REST API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	metrics        *metrics.APIMetrics
	logger         *slog.Logger
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar, if any,
// carries the session.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCookieJar sets the jar holding the session cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMetrics records per-endpoint request metrics.
func WithMetrics(m *metrics.APIMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUnauthorizedHandler registers fn to run whenever a protected call is
// answered with 401, i.e. the session was lost.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: must be an absolute http(s) URL", baseURL)
	}

	jar, err := NewCookieJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetUnauthorizedHandler replaces the session-lost hook after construction.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the backend origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request.
type call struct {
	// endpoint is a stable label for logs and metrics (path without ids).
	endpoint string
	method   string
	path     string

	body        io.Reader
	contentType string

	// public calls never signal a lost session on 401 (e.g. login).
	public bool
}

func (c *Client) jsonCall(endpoint, method, path string, in any) (call, error) {
	cl := call{endpoint: endpoint, method: method, path: path}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return cl, fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
		}
		cl.body = bytes.NewReader(payload)
		cl.contentType = "application/json"
	}
	return cl, nil
}

// do executes cl and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", cl.endpoint, err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(cl.endpoint, cl.method, 0, time.Since(start))
		c.logger.Error("API request failed",
			"endpoint", cl.endpoint,
			"method", cl.method,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("failed to send %s request: %w", cl.endpoint, err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	c.metrics.Observe(cl.endpoint, cl.method, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newStatusError(cl, resp)
		c.logger.Warn("API request rejected",
			"endpoint", cl.endpoint,
			"method", cl.method,
			"status", resp.StatusCode,
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
		)
		if resp.StatusCode == http.StatusUnauthorized && !cl.public && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return statusErr
	}

	c.logger.Debug("API request ok",
		"endpoint", cl.endpoint,
		"method", cl.method,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", elapsed.Milliseconds(),
	)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s response: %w", cl.endpoint, err)
	}
	return nil
}
