// Package webapi holds the HTTP plumbing shared by the chemistry service
// clients: rate limiting, JSON bodies and status-code errors.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/soyeahso/chemkit/internal/version"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single request when the caller's context has no
// deadline. A caller deadline always wins, so long polls can outlive it.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response is kept in an APIError.
const maxErrorBody = 512

// APIError is returned when a service answers with a non-2xx status.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client performs requests against one service.
type Client struct {
	Service string
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter // nil disables limiting
	Header  http.Header   // sent with every request
	Timeout time.Duration // per request, only without a caller deadline
}

// New creates a client for service rooted at baseURL. Requests identify
// themselves with version.UserAgent.
func New(service, baseURL string) *Client {
	return &Client{
		Service: service,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Header:  http.Header{"User-Agent": {version.UserAgent()}},
		Timeout: DefaultTimeout,
	}
}

// WithRateLimit attaches a token-bucket limiter allowing rps requests per
// second.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// Get fetches path (relative to BaseURL) and returns the raw body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Do sends a request. A non-nil body is encoded as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if body == nil {
		return c.Send(ctx, method, path, nil, "", nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", c.Service, err)
	}
	return c.Send(ctx, method, path, bytes.NewReader(data), "application/json", nil)
}

// Send is the low-level request path used by Do. Extra headers are applied
// after the client-wide ones.
func (c *Client) Send(ctx context.Context, method, path string, body io.Reader, contentType string, header http.Header) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit: %w", c.Service, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.Service, err)
	}
	req.Header.Set("Accept", "application/json")
	for _, h := range []http.Header{c.Header, header} {
		for k, vs := range h {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.Service, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := Truncate(strings.TrimSpace(string(data)), maxErrorBody)
		return nil, &APIError{Service: c.Service, StatusCode: resp.StatusCode, Body: msg}
	}
	return data, nil
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// StatusCode extracts the HTTP status from an *APIError, or 0.
func StatusCode(err error) int {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
