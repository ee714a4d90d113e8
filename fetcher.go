package civet

import "context"

// Fetcher retrieves HTML from source URLs.
// Implementations may use plain HTTP or browser automation for
// JavaScript-rendered portals; retry and backoff policy belongs to the
// implementation, not to the pipeline.
type Fetcher interface {
	// Fetch returns the page HTML for the URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources (e.g. a browser process).
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
