// Package fetch retrieves article pages over HTTP with a single attempt per
// URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is a browser-like identification header.
	DefaultUserAgent = "Mozilla/5.0 (compatible; headlines/1.0; +https://github.com/pevans/headlines)"
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 10 << 20
)

// Reason tags why a fetch failed.
type Reason string

const (
	ReasonRequest    Reason = "request"
	ReasonTimeout    Reason = "timeout"
	ReasonConnection Reason = "connection"
	ReasonHTTPStatus Reason = "http_status"
	ReasonRead       Reason = "read"
)

// Failure describes a failed fetch. Fetch always returns a *Failure as its
// error so callers can recover it locally.
type Failure struct {
	URL        string
	Reason     Reason
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Reason == ReasonHTTPStatus {
		return fmt.Sprintf("fetch %s: HTTP error: %d", f.URL, f.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", f.URL, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Config controls the fetcher.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Fetcher issues GET requests for article pages.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// New creates a fetcher with its own HTTP client.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return NewWithClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// NewWithClient creates a fetcher around an existing HTTP client. The
// client's timeout is left as configured.
func NewWithClient(client *http.Client, cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Fetcher{
		client:       client,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch retrieves the raw markup at url. Any error returned is a *Failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Failure{URL: url, Reason: ReasonRequest, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-CO,es;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Failure{URL: url, Reason: classify(err, ReasonConnection), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Failure{
			URL:        url,
			Reason:     ReasonHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, &Failure{URL: url, Reason: classify(err, ReasonRead), Err: err}
	}

	return body, nil
}

// classify maps transport errors to a failure reason, falling back to
// the given default.
func classify(err error, fallback Reason) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return fallback
}
