// Package transport issues the HTTP requests the installer needs: JSON documents,
// artifact byte streams and metadata-only size probes.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ndnm/ndnm/internal/messages"
)

const (
	userAgent         = "ndnm"
	defaultRetryDelay = 250 * time.Millisecond
)

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(messages.TransportUnexpectedStatusFmt, e.URL, e.Status)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackOff overrides the retry delay policy.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// Client fetches remote resources with bounded retries.
type Client struct {
	http       Doer
	timeout    time.Duration
	retries    int
	newBackOff func() backoff.BackOff
}

// New returns a Client. timeout bounds JSON and HEAD requests and the wait for
// response headers of streamed downloads; the streamed body itself is unbounded.
func New(timeout time.Duration, opts ...Option) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = timeout
	c := &Client{
		http:    &http.Client{Transport: tr},
		timeout: timeout,
		retries: 1,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = defaultRetryDelay
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf(messages.TransportDecodeFmt, url, err)
	}
	return nil
}

// GetStream opens the body of url for streaming. The caller closes it.
func (c *Client) GetStream(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ContentLength issues a HEAD request and returns the reported size.
// It returns 0 when the server does not report a length.
func (c *Client) ContentLength(ctx context.Context, url string) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()

	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	raw := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf(messages.TransportInvalidContentLengthFmt, url, raw)
	}
	return n, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// do sends the request, retrying network errors and 5xx responses. The returned
// response always has status 200.
func (c *Client) do(ctx context.Context, method string, url string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var resp *http.Response
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf(messages.TransportCreateRequestFmt, url, err))
		}
		req.Header.Set("User-Agent", userAgent)

		r, err := c.http.Do(req)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(wrapRequestError(url, err))
			}
			return wrapRequestError(url, err)
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			statusErr := &StatusError{URL: url, StatusCode: r.StatusCode, Status: r.Status}
			if r.StatusCode >= 500 && r.StatusCode <= 599 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func wrapRequestError(url string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf(messages.TransportRequestTimeoutFmt+": %w", url, err)
	}
	return fmt.Errorf(messages.TransportRequestFailedFmt, url, err)
}
