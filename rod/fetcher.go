// Package rod provides a browser-rendering implementation of civet.Fetcher
// for JavaScript-heavy civic portals whose listings only exist after scripts
// run.
package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/civet"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// Ensure Fetcher implements civet.Fetcher at compile time.
var _ civet.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation. The
// browser is recycled after maxPages fetches: Chrome accumulates memory under
// load (~0.5MB/s) and never returns to its baseline even with proper page
// cleanup, so long batch runs need periodic restarts.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	mu        sync.Mutex
	browser   *rod.Browser
	lnchr     *launcher.Launcher
	pageCount int64
	closed    atomic.Bool

	headless     bool
	maxPages     int64
	renderDelay  time.Duration
	waitSelector string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHeadless controls whether Chrome runs headless. Defaults to true;
// disable when debugging selectors against a live portal.
func WithHeadless(headless bool) Option {
	return func(f *Fetcher) {
		f.headless = headless
	}
}

// WithMaxPages sets the number of pages fetched before the browser is
// recycled. Defaults to DefaultMaxPages (75).
func WithMaxPages(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithRenderDelay adds a fixed wait after page load before reading HTML, for
// portals that populate their listings from a late XHR.
func WithRenderDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.renderDelay = d
	}
}

// WithWaitSelector blocks after page load until the selector appears before
// reading HTML. Prefer it over WithRenderDelay when the listing container has
// a stable selector.
func WithWaitSelector(selector string) Option {
	return func(f *Fetcher) {
		f.waitSelector = selector
	}
}

// NewFetcher creates a new Fetcher and launches Chrome.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		headless: true,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.launchBrowser(); err != nil {
		return nil, err
	}

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := f.acquireBrowser()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	// Set context for all subsequent operations
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.waitSelector != "" {
		if _, err := page.Element(f.waitSelector); err != nil {
			return "", err
		}
	}
	if f.renderDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.renderDelay):
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	atomic.AddInt64(&f.pageCount, 1)
	return html, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closeBrowser()
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify cleanup and recycling.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lnchr == nil {
		return 0
	}
	return f.lnchr.PID()
}

// acquireBrowser returns the current browser, recycling it first when the
// page budget is spent.
func (f *Fetcher) acquireBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed.Load() {
		return nil, fmt.Errorf("fetcher is closed")
	}

	if atomic.LoadInt64(&f.pageCount) >= f.maxPages {
		f.recycleBrowser()
	}

	return f.browser, nil
}

// launchBrowser starts a new browser instance with stability flags.
func (f *Fetcher) launchBrowser() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(f.headless)

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.lnchr = lnchr
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (f *Fetcher) closeBrowser() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.lnchr != nil {
		f.lnchr.Kill()
		f.lnchr = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (f *Fetcher) recycleBrowser() {
	oldBrowser := f.browser
	oldLauncher := f.lnchr
	f.browser = nil
	f.lnchr = nil

	if err := f.launchBrowser(); err != nil {
		// Keep serving with the old browser rather than failing the batch.
		f.browser = oldBrowser
		f.lnchr = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	atomic.StoreInt64(&f.pageCount, 0)
}
