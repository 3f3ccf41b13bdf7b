// Package fetch retrieves remote resources for the dataURL and favicon
// functions.
package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// DefaultContentType is used when a response declares none.
const DefaultContentType = "application/octet-stream"

// MaxBodyBytes bounds a single fetched resource by default.
const MaxBodyBytes = 16 << 20

// Resource is a fetched response body.
type Resource struct {
	URL         string
	ContentType string
	Body        []byte
}

// DataURL encodes the resource as a base64 data: URL.
func (r *Resource) DataURL() string {
	return "data:" + r.ContentType + ";base64," + base64.StdEncoding.EncodeToString(r.Body)
}

// Client performs GET requests with a shared http.Client.
type Client struct {
	http      *http.Client
	userAgent string
	policy    retry.Policy
	maxBody   int64
}

// Option configures a Client.
type Option func(*Client)

// WithRetry retries transport failures, 429 and 5xx responses under p.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithMaxBody limits response bodies to n bytes. Larger bodies fail instead
// of being truncated.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewClient returns a Client with the given per-request timeout. Without
// WithRetry a failed request is not repeated.
func NewClient(timeout time.Duration, userAgent string, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		policy:    retry.None(),
		maxBody:   MaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches target. Transport failures and non-2xx responses are network
// errors.
func (c *Client) Get(ctx context.Context, target string) (*Resource, error) {
	var (
		res       *Resource
		err       error
		transient bool
	)
	for attempt := 0; ; attempt++ {
		res, transient, err = c.get(ctx, target)
		if err == nil || !transient || attempt >= c.policy.MaxRetries {
			break
		}
		if werr := c.policy.Wait(ctx, attempt+1); werr != nil {
			break
		}
	}
	return res, err
}

// get performs one attempt and reports whether a failure may succeed on
// retry.
func (c *Client) get(ctx context.Context, target string) (*Resource, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryNetwork, "invalid URL").
			WithContext("url", target).
			Build()
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, errors.WrapError(err, errors.CategoryNetwork, "fetch failed").
			WithContext("url", target).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, transient, errors.NetworkError(fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithContext("url", target).
			WithContext("status", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, ctx.Err() == nil, errors.WrapError(err, errors.CategoryNetwork, "read response body").
			WithContext("url", target).
			Build()
	}
	if int64(len(body)) > c.maxBody {
		return nil, false, errors.NetworkError("resource too large").
			WithContext("url", target).
			WithContext("limit_bytes", c.maxBody).
			Build()
	}

	return &Resource{
		URL:         resp.Request.URL.String(),
		ContentType: contentType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, false, nil
}

func contentType(header string) string {
	if header == "" {
		return DefaultContentType
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	return mime.FormatMediaType(mediaType, params)
}
