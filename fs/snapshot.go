// Package fs provides a file-based archive of fetched page HTML.
// Snapshots let `civet analyze --offline` rebuild a manifest without
// refetching and preserve the exact markup a ruleset was derived from.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/civet"
)

// snapshotTimeLayout names snapshot files. Fixed width, so lexicographic
// order is chronological order.
const snapshotTimeLayout = "20060102T150405.000000000"

// Ensure SnapshotStore implements civet.SnapshotStore at compile time.
var _ civet.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore archives page HTML under
// baseDir/region/dataType/urlhash/timestamp.html. Snapshots accumulate;
// nothing is ever overwritten. A source.txt beside the snapshots records
// which URL the hash directory belongs to.
type SnapshotStore struct {
	baseDir string
}

// NewSnapshotStore creates a new SnapshotStore rooted at baseDir.
func NewSnapshotStore(baseDir string) *SnapshotStore {
	return &SnapshotStore{baseDir: baseDir}
}

// SaveSnapshot archives the snapshot HTML as a new timestamped file.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *civet.Snapshot) error {
	if snap.RegionID == "" {
		return civet.Errorf(civet.EINVALID, "snapshot region ID required")
	}
	if snap.SourceURL == "" {
		return civet.Errorf(civet.EINVALID, "snapshot source URL required")
	}
	if !snap.DataType.Valid() {
		return civet.Errorf(civet.EINVALID, "snapshot data type %q invalid", snap.DataType)
	}

	dir := s.keyDir(snap.RegionID, snap.SourceURL, snap.DataType)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	name := fetchedAt.UTC().Format(snapshotTimeLayout) + ".html"

	if err := writeFileAtomic(filepath.Join(dir, "source.txt"), []byte(snap.SourceURL)); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, name), []byte(snap.HTML))
}

// LatestSnapshot returns the most recently archived snapshot for the key.
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.Snapshot, error) {
	dir := s.keyDir(regionID, sourceURL, dataType)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, civet.Errorf(civet.ENOTFOUND, "no snapshot for %s %s %s", regionID, sourceURL, dataType)
		}
		return nil, err
	}

	var latest string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".html") {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return nil, civet.Errorf(civet.ENOTFOUND, "no snapshot for %s %s %s", regionID, sourceURL, dataType)
	}

	html, err := os.ReadFile(filepath.Join(dir, latest))
	if err != nil {
		return nil, err
	}

	fetchedAt, err := time.Parse(snapshotTimeLayout, strings.TrimSuffix(latest, ".html"))
	if err != nil {
		return nil, fmt.Errorf("malformed snapshot name %q: %w", latest, err)
	}

	return &civet.Snapshot{
		RegionID:  regionID,
		SourceURL: sourceURL,
		DataType:  dataType,
		HTML:      string(html),
		FetchedAt: fetchedAt,
	}, nil
}

// keyDir maps a source key to its snapshot directory. The URL is hashed
// because URLs contain path separators and query strings.
func (s *SnapshotStore) keyDir(regionID, sourceURL string, dataType civet.DataType) string {
	urlHash := fmt.Sprintf("%016x", xxhash.Sum64String(sourceURL))
	return filepath.Join(s.baseDir, regionID, string(dataType), urlHash)
}

// writeFileAtomic writes via a temp file and rename so a crashed run never
// leaves a half-written snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
