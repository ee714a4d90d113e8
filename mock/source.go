package mock

import (
	"context"

	"github.com/fwojciec/civet"
)

var _ civet.SourceService = (*SourceService)(nil)

// SourceService is a mock implementation of civet.SourceService.
type SourceService struct {
	CreateSourceFn   func(ctx context.Context, source *civet.Source) error
	FindSourceByIDFn func(ctx context.Context, id string) (*civet.Source, error)
	FindSourcesFn    func(ctx context.Context, filter civet.SourceFilter) ([]*civet.Source, error)
	DeleteSourceFn   func(ctx context.Context, id string) error
}

func (s *SourceService) CreateSource(ctx context.Context, source *civet.Source) error {
	return s.CreateSourceFn(ctx, source)
}

func (s *SourceService) FindSourceByID(ctx context.Context, id string) (*civet.Source, error) {
	return s.FindSourceByIDFn(ctx, id)
}

func (s *SourceService) FindSources(ctx context.Context, filter civet.SourceFilter) ([]*civet.Source, error) {
	return s.FindSourcesFn(ctx, filter)
}

func (s *SourceService) DeleteSource(ctx context.Context, id string) error {
	return s.DeleteSourceFn(ctx, id)
}

var _ civet.SourceDiscoverer = (*SourceDiscoverer)(nil)

// SourceDiscoverer is a mock implementation of civet.SourceDiscoverer.
type SourceDiscoverer struct {
	DiscoverFn func(ctx context.Context, baseURL string, filter *civet.URLFilter) ([]string, error)
}

func (d *SourceDiscoverer) Discover(ctx context.Context, baseURL string, filter *civet.URLFilter) ([]string, error) {
	return d.DiscoverFn(ctx, baseURL, filter)
}

var _ civet.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of civet.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.WaitFn(ctx, domain)
}
