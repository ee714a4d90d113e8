package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/civet"
)

// Ensure LoggingSourceDiscoverer implements civet.SourceDiscoverer.
var _ civet.SourceDiscoverer = (*LoggingSourceDiscoverer)(nil)

// LoggingSourceDiscoverer wraps a SourceDiscoverer with debug logging.
type LoggingSourceDiscoverer struct {
	next   civet.SourceDiscoverer
	logger *slog.Logger
}

// NewLoggingSourceDiscoverer creates a new LoggingSourceDiscoverer.
func NewLoggingSourceDiscoverer(next civet.SourceDiscoverer, logger *slog.Logger) *LoggingSourceDiscoverer {
	return &LoggingSourceDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the operation.
func (d *LoggingSourceDiscoverer) Discover(ctx context.Context, baseURL string, filter *civet.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		d.logger.Info("source discovery",
			"url", baseURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Discover(ctx, baseURL, filter)
}
