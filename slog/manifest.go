package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/civet"
)

// Ensure LoggingManifestService implements civet.ManifestService.
var _ civet.ManifestService = (*LoggingManifestService)(nil)

// LoggingManifestService wraps a ManifestService with debug logging for
// lookups and saves. Counter updates delegate silently.
type LoggingManifestService struct {
	next   civet.ManifestService
	logger *slog.Logger
}

// NewLoggingManifestService creates a new LoggingManifestService.
func NewLoggingManifestService(next civet.ManifestService, logger *slog.Logger) *LoggingManifestService {
	return &LoggingManifestService{next: next, logger: logger}
}

// FindLatest delegates to the wrapped service and logs the lookup.
func (s *LoggingManifestService) FindLatest(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (m *civet.StructuralManifest, err error) {
	defer func(begin time.Time) {
		version := 0
		if m != nil {
			version = m.Version
		}
		s.logger.Info("manifest lookup",
			"region", regionID,
			"url", sourceURL,
			"data_type", dataType,
			"version", version,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindLatest(ctx, regionID, sourceURL, dataType)
}

// Save delegates to the wrapped service and logs the new version.
func (s *LoggingManifestService) Save(ctx context.Context, m *civet.StructuralManifest) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("manifest save",
			"region", m.RegionID,
			"url", m.SourceURL,
			"data_type", m.DataType,
			"version", m.Version,
			"confidence", m.Confidence,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, m)
}

// IncrementSuccess delegates to the wrapped service.
func (s *LoggingManifestService) IncrementSuccess(ctx context.Context, id string) error {
	return s.next.IncrementSuccess(ctx, id)
}

// IncrementFailure delegates to the wrapped service.
func (s *LoggingManifestService) IncrementFailure(ctx context.Context, id string) error {
	return s.next.IncrementFailure(ctx, id)
}

// History delegates to the wrapped service.
func (s *LoggingManifestService) History(ctx context.Context, regionID, sourceURL string, dataType civet.DataType, limit int) ([]*civet.StructuralManifest, error) {
	return s.next.History(ctx, regionID, sourceURL, dataType, limit)
}

// MarkChecked delegates to the wrapped service.
func (s *LoggingManifestService) MarkChecked(ctx context.Context, id string) error {
	return s.next.MarkChecked(ctx, id)
}
