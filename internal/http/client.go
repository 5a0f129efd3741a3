package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Common errors. A *StatusError matches the sentinel for its status code
// via errors.Is.
var (
	ErrNotFound    = errors.New("http: resource not found")
	ErrServerError = errors.New("http: server error")
	ErrIdleTimeout = errors.New("http: no data received within timeout")
)

// StatusError is returned for responses with a status code of 300 or above.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http: got status %q for %s", e.Status, e.URL)
}

// Is reports whether target is the sentinel error for e's status code.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServerError:
		return e.StatusCode >= 500
	}
	return false
}

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds connecting, waiting for response headers, and each
	// read of a response body. It does not bound a whole transfer.
	// Default: 30s
	Timeout time.Duration

	// RetryAttempts is the maximum number of retries for metadata requests
	// (Head and Get). GetFrom never retries.
	// Default: 3
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 1s
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 30s
	RetryMaxBackoff time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:         30 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    time.Second,
		RetryMaxBackoff: 30 * time.Second,
		UserAgent:       "wp-download",
	}
}

// FileInfo contains metadata about a remote file.
type FileInfo struct {
	Size          int64
	AcceptsRanges bool
}

// RangeResponse represents a response from a ranged GET.
type RangeResponse struct {
	Body          io.ReadCloser
	StatusCode    int
	ContentLength int64
	ContentRange  string
}

// Partial reports whether the server honoured the range request.
func (r *RangeResponse) Partial() bool {
	return r.StatusCode == http.StatusPartialContent
}

// Client is an HTTP client for dump listing pages and dump files.
//
// A Client is safe to reuse across requests; wp-download uses one instance
// for a whole run.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	dialer := &net.Dialer{
		Timeout:   opts.Timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true, // We want raw bytes for range requests
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Head performs a HEAD request to get file metadata. Transport errors and
// server errors are retried with backoff.
func (c *Client) Head(ctx context.Context, url string) (*FileInfo, error) {
	resp, err := c.doWithRetry(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	info := &FileInfo{
		Size:          resp.ContentLength,
		AcceptsRanges: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	return info, nil
}

// Get performs a GET request and returns the response body. Transport errors
// and server errors are retried with backoff.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	resp, err := c.doWithRetry(ctx, http.MethodGet, url)
	if err != nil {
		cancel()
		return nil, err
	}
	return newIdleBody(resp.Body, c.opts.Timeout, cancel), nil
}

// GetFrom performs a single GET request for url starting at byte offset.
// Statuses of 300 and above are returned as *StatusError.
//
// Reads from the returned body fail with ErrIdleTimeout if no data arrives
// within the configured timeout.
func (c *Client) GetFrom(ctx context.Context, url string, offset int64) (*RangeResponse, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return &RangeResponse{
		Body:          newIdleBody(resp.Body, c.opts.Timeout, cancel),
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		ContentRange:  resp.Header.Get("Content-Range"),
	}, nil
}

// Backoff waits for an exponentially increasing duration with jitter before
// retry number attempt (starting at 1).
func (c *Client) Backoff(ctx context.Context, attempt int) error {
	if c.opts.RetryBackoff <= 0 || attempt < 1 {
		return ctx.Err()
	}

	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(min(attempt-1, 30)))
	if c.opts.RetryMaxBackoff > 0 && backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	timer := time.NewTimer(jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) doWithRetry(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.Backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := c.newRequest(ctx, method, url)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		// Server errors are retryable
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
			continue
		}

		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%s request failed after %d attempts: %w",
		strings.ToLower(method), c.opts.RetryAttempts+1, lastErr)
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	return req, nil
}

// idleBody cancels the request when no read completes within timeout.
type idleBody struct {
	body    io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
	cancel  context.CancelFunc
	fired   atomic.Bool
}

func newIdleBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{body: body, timeout: timeout, cancel: cancel}
	b.timer = time.AfterFunc(timeout, func() {
		b.fired.Store(true)
		cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err != nil && err != io.EOF && b.fired.Load() {
		return n, ErrIdleTimeout
	}
	b.timer.Reset(b.timeout)
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.body.Close()
	b.cancel()
	return err
}

// ParseContentRange parses a Content-Range header value.
// Returns start, end, total bytes. Total may be -1 if unknown.
func ParseContentRange(header string) (start, end, total int64, err error) {
	// Format: bytes start-end/total or bytes start-end/*
	header = strings.TrimPrefix(header, "bytes ")
	parts := strings.Split(header, "/")
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	rangeParts := strings.Split(parts[0], "-")
	if len(rangeParts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	start, err = strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid start byte: %w", err)
	}

	end, err = strconv.ParseInt(rangeParts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid end byte: %w", err)
	}

	if parts[1] == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid total bytes: %w", err)
		}
	}

	return start, end, total, nil
}
