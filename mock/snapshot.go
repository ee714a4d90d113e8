package mock

import (
	"context"

	"github.com/fwojciec/civet"
)

var _ civet.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of civet.SnapshotStore.
type SnapshotStore struct {
	SaveSnapshotFn   func(ctx context.Context, snap *civet.Snapshot) error
	LatestSnapshotFn func(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.Snapshot, error)
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *civet.Snapshot) error {
	return s.SaveSnapshotFn(ctx, snap)
}

func (s *SnapshotStore) LatestSnapshot(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.Snapshot, error) {
	return s.LatestSnapshotFn(ctx, regionID, sourceURL, dataType)
}
