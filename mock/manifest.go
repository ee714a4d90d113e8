// Package mock provides function-field mock implementations of the civet
// service interfaces for use in tests.
package mock

import (
	"context"

	"github.com/fwojciec/civet"
)

var _ civet.ManifestService = (*ManifestService)(nil)

// ManifestService is a mock implementation of civet.ManifestService.
type ManifestService struct {
	FindLatestFn       func(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.StructuralManifest, error)
	SaveFn             func(ctx context.Context, m *civet.StructuralManifest) error
	IncrementSuccessFn func(ctx context.Context, id string) error
	IncrementFailureFn func(ctx context.Context, id string) error
	HistoryFn          func(ctx context.Context, regionID, sourceURL string, dataType civet.DataType, limit int) ([]*civet.StructuralManifest, error)
	MarkCheckedFn      func(ctx context.Context, id string) error
}

func (s *ManifestService) FindLatest(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.StructuralManifest, error) {
	return s.FindLatestFn(ctx, regionID, sourceURL, dataType)
}

func (s *ManifestService) Save(ctx context.Context, m *civet.StructuralManifest) error {
	return s.SaveFn(ctx, m)
}

func (s *ManifestService) IncrementSuccess(ctx context.Context, id string) error {
	return s.IncrementSuccessFn(ctx, id)
}

func (s *ManifestService) IncrementFailure(ctx context.Context, id string) error {
	return s.IncrementFailureFn(ctx, id)
}

func (s *ManifestService) History(ctx context.Context, regionID, sourceURL string, dataType civet.DataType, limit int) ([]*civet.StructuralManifest, error) {
	return s.HistoryFn(ctx, regionID, sourceURL, dataType, limit)
}

func (s *ManifestService) MarkChecked(ctx context.Context, id string) error {
	return s.MarkCheckedFn(ctx, id)
}
