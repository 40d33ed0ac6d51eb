package enhance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slizzai/slizzai/pkg/errors"
	"github.com/slizzai/slizzai/pkg/httputil"
	"github.com/slizzai/slizzai/pkg/observability"
)

const (
	// DefaultTimeout bounds one request end to end.
	DefaultTimeout = 300 * time.Second

	// Path is the enhancement endpoint relative to the base URL.
	Path = "/supersample"

	// FormField is the multipart field carrying the raw tile.
	FormField = "image"

	// MaxResponseBytes caps the enhanced image size.
	MaxResponseBytes = 256 << 20
)

// Client calls a remote super-sampling service.
type Client struct {
	base  *url.URL
	http  *http.Client
	hooks observability.HTTPHooks
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the end-to-end request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHooks sets the HTTP hooks.
func WithHooks(h observability.HTTPHooks) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = h
		}
	}
}

// NewClient creates a client for the service at baseURL.
// It returns an INVALID_URL error for anything but an absolute http(s) URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "parse sampler url")
	}
	c := &Client{
		base:  u,
		http:  &http.Client{Timeout: DefaultTimeout},
		hooks: observability.NoopHTTPHooks{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the full enhancement URL.
func (c *Client) Endpoint() string {
	return c.base.String() + Path
}

// Enhance uploads image and returns the enhanced bytes. Transport
// failures and 5xx/429 responses are returned as
// *httputil.RetryableError; other failures are permanent.
func (c *Client) Enhance(ctx context.Context, image []byte) ([]byte, error) {
	body, contentType, err := multipartBody(image)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "build request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")

	host, path := c.base.Host, c.base.Path+Path
	c.hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "POST %s", c.Endpoint())}
	}
	defer resp.Body.Close()
	c.hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &httputil.RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter(resp.Header)}}
		}
		if httputil.IsRetryable(err) {
			return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "POST %s", c.Endpoint())}
		}
		return nil, errors.Wrap(errors.ErrCodeService, err, "POST %s", c.Endpoint())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response")}
	}
	switch {
	case len(data) == 0:
		return nil, errors.New(errors.ErrCodeService, "sampler returned an empty image")
	case len(data) > MaxResponseBytes:
		return nil, errors.New(errors.ErrCodeService, "sampler response exceeds %d bytes", MaxResponseBytes)
	}
	return data, nil
}

// retryAfter reads a Retry-After header given in seconds. HTTP dates and
// malformed values yield 0.
func retryAfter(h http.Header) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func multipartBody(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(FormField, "tile.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
