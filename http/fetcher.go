// Package http provides the plain-HTTP implementation of civet.Fetcher and
// sitemap-based discovery of candidate source pages on civic portals.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/civet"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent identifies the scraper to civic portals. Several
// government sites reject Go's default user agent outright.
const DefaultUserAgent = "civetbot/1.0 (+https://github.com/fwojciec/civet)"

// Ensure Fetcher implements civet.Fetcher at compile time.
var _ civet.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content over plain HTTP. It does not execute
// JavaScript; portals flagged with RenderJS use the rod fetcher instead.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	retryDelays []time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetry enables bounded retry with the given backoff delays: one initial
// attempt plus one retry per delay. Without it a fetch fails on the first
// error.
func WithRetry(delays ...time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelays = delays
	}
}

// DefaultRetryDelays returns the standard backoff delays for WithRetry:
// 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL, retrying with backoff
// when retry delays are configured.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.fetchOnce(ctx, url)
	if err == nil {
		return html, nil
	}

	for _, delay := range f.retryDelays {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		html, err = f.fetchOnce(ctx, url)
		if err == nil {
			return html, nil
		}
	}

	return "", err
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
