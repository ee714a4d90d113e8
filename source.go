package civet

import (
	"context"
	"regexp"
	"time"
)

// Source is a registered civic-data page: one (region, URL, data type) key
// the batch runner iterates. RenderJS records whether the page needs a
// JavaScript-rendering fetcher, as determined by the operator or the render
// probe.
type Source struct {
	ID          string    `json:"id"`
	RegionID    string    `json:"regionId"`
	URL         string    `json:"url"`
	DataType    DataType  `json:"dataType"`
	ContentGoal string    `json:"contentGoal,omitempty"`
	RenderJS    bool      `json:"renderJs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.RegionID == "" {
		return Errorf(EINVALID, "source region ID required")
	}
	if s.URL == "" {
		return Errorf(EINVALID, "source URL required")
	}
	if !s.DataType.Valid() {
		return Errorf(EINVALID, "source data type %q invalid", s.DataType)
	}
	return nil
}

// SourceFilter restricts FindSources.
type SourceFilter struct {
	RegionID *string
	DataType *DataType

	Offset int
	Limit  int
}

// SourceService manages the registry of sources.
type SourceService interface {
	// CreateSource registers a new source.
	// Returns ECONFLICT if the (region, URL, data type) key already exists.
	CreateSource(ctx context.Context, source *Source) error

	// FindSourceByID retrieves a source by ID.
	// Returns ENOTFOUND if the source does not exist.
	FindSourceByID(ctx context.Context, id string) (*Source, error)

	// FindSources retrieves sources matching the filter.
	FindSources(ctx context.Context, filter SourceFilter) ([]*Source, error)

	// DeleteSource permanently removes a source.
	// Returns ENOTFOUND if the source does not exist.
	DeleteSource(ctx context.Context, id string) error
}

// SourceDiscoverer enumerates candidate source page URLs for a portal,
// typically from its sitemap. This is declarative enumeration, not link
// crawling: nested sitemap indexes are resolved, link graphs are not
// followed.
type SourceDiscoverer interface {
	Discover(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding discovered URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern
	// are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// A nil filter passes everything.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// DomainLimiter provides per-domain rate limiting for batch runs.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
