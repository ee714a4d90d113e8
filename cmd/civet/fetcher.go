package main

import (
	"context"
	"sync"

	"github.com/fwojciec/civet"
)

// Ensure SwitchFetcher implements civet.Fetcher at compile time.
var _ civet.Fetcher = (*SwitchFetcher)(nil)

// SwitchFetcher routes each URL to the plain or JavaScript-rendering
// fetcher according to the render flags of the sources in a batch.
type SwitchFetcher struct {
	plain    civet.Fetcher
	rendered civet.Fetcher

	mu     sync.Mutex
	render map[string]bool
}

// NewSwitchFetcher creates a new SwitchFetcher.
func NewSwitchFetcher(plain, rendered civet.Fetcher) *SwitchFetcher {
	return &SwitchFetcher{plain: plain, rendered: rendered}
}

// SetRender records whether the URL needs the rendering fetcher.
func (f *SwitchFetcher) SetRender(url string, renderJS bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.render == nil {
		f.render = make(map[string]bool)
	}
	f.render[url] = renderJS
}

// Fetch delegates to the fetcher registered for the URL. Unregistered URLs
// fetch over plain HTTP.
func (f *SwitchFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	needsRender := f.render[url]
	f.mu.Unlock()

	if needsRender {
		return f.rendered.Fetch(ctx, url)
	}
	return f.plain.Fetch(ctx, url)
}

// Close closes both fetchers and returns the first error.
func (f *SwitchFetcher) Close() error {
	err := f.plain.Close()
	if rerr := f.rendered.Close(); err == nil {
		err = rerr
	}
	return err
}

// Ensure lazyFetcher implements civet.Fetcher at compile time.
var _ civet.Fetcher = (*lazyFetcher)(nil)

// lazyFetcher defers construction until the first fetch, so a batch with no
// render_js sources never starts a browser.
type lazyFetcher struct {
	launch func() (civet.Fetcher, error)

	mu      sync.Mutex
	fetcher civet.Fetcher
}

func newLazyFetcher(launch func() (civet.Fetcher, error)) *lazyFetcher {
	return &lazyFetcher{launch: launch}
}

func (f *lazyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	fetcher, err := f.get()
	if err != nil {
		return "", err
	}
	return fetcher.Fetch(ctx, url)
}

func (f *lazyFetcher) get() (civet.Fetcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetcher != nil {
		return f.fetcher, nil
	}
	fetcher, err := f.launch()
	if err != nil {
		return nil, err
	}
	f.fetcher = fetcher
	return fetcher, nil
}

func (f *lazyFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetcher == nil {
		return nil
	}
	return f.fetcher.Close()
}
