package civet

import (
	"context"
	"time"
)

// Snapshot is a stored copy of one fetched page, kept so analysis can be
// replayed offline and structure changes can be diffed after the fact.
type Snapshot struct {
	RegionID  string    `json:"regionId"`
	SourceURL string    `json:"sourceUrl"`
	DataType  DataType  `json:"dataType"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SnapshotStore archives fetched page HTML per source key.
type SnapshotStore interface {
	// SaveSnapshot archives the snapshot. Repeated saves for the same key
	// accumulate; they never overwrite earlier snapshots.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LatestSnapshot returns the most recently saved snapshot for the key.
	// Returns ENOTFOUND if the key has never been snapshotted.
	LatestSnapshot(ctx context.Context, regionID, sourceURL string, dataType DataType) (*Snapshot, error)
}
