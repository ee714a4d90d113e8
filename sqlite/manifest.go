package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/civet"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ civet.ManifestService = (*ManifestService)(nil)

// defaultHistoryLimit caps History results when the caller passes no limit.
const defaultHistoryLimit = 10

// manifestColumns is the SELECT list shared by every manifest query; it must
// stay in sync with scanManifest.
const manifestColumns = `id, region_id, source_url, data_type, version,
	structure_hash, prompt_hash, prompt_version,
	container_selector, item_selector, field_mappings, preprocessing,
	confidence, success_count, failure_count, is_active,
	last_used_at, last_checked_at, created_at`

// ManifestService implements civet.ManifestService using SQLite.
// Extraction rules are stored as JSON text columns; the version chain per
// (region, URL, data type) key is append-only.
type ManifestService struct {
	db *DB
}

// NewManifestService creates a new ManifestService.
func NewManifestService(db *DB) *ManifestService {
	return &ManifestService{db: db}
}

// FindLatest returns the active manifest for the key, preferring the highest
// version. Inactive versions are never returned.
func (s *ManifestService) FindLatest(ctx context.Context, regionID, sourceURL string, dataType civet.DataType) (*civet.StructuralManifest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+manifestColumns+`
		FROM manifests
		WHERE region_id = ? AND source_url = ? AND data_type = ? AND is_active = 1
		ORDER BY version DESC
		LIMIT 1
	`, regionID, sourceURL, string(dataType))

	m, err := scanManifest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, civet.Errorf(civet.ENOTFOUND, "manifest not found")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Save persists the manifest as the next version for its key: every active
// version is deactivated and the new row inserted with the next version
// number and zeroed counters, in one transaction. The passed manifest is
// updated with its assigned ID, version and timestamps.
func (s *ManifestService) Save(ctx context.Context, m *civet.StructuralManifest) error {
	if err := m.Validate(); err != nil {
		return err
	}

	mappingsJSON, err := json.Marshal(m.FieldMappings)
	if err != nil {
		return fmt.Errorf("failed to encode field mappings: %w", err)
	}
	preprocessingJSON, err := json.Marshal(m.Preprocessing)
	if err != nil {
		return fmt.Errorf("failed to encode preprocessing: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE manifests
		SET is_active = 0
		WHERE region_id = ? AND source_url = ? AND data_type = ? AND is_active = 1
	`, m.RegionID, m.SourceURL, string(m.DataType)); err != nil {
		return err
	}

	var version int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM manifests
		WHERE region_id = ? AND source_url = ? AND data_type = ?
	`, m.RegionID, m.SourceURL, string(m.DataType)).Scan(&version); err != nil {
		return err
	}

	m.ID = uuid.New().String()
	m.Version = version
	m.SuccessCount = 0
	m.FailureCount = 0
	m.IsActive = true
	m.LastUsedAt = nil
	m.LastCheckedAt = nil
	m.CreatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO manifests (
			id, region_id, source_url, data_type, version,
			structure_hash, prompt_hash, prompt_version,
			container_selector, item_selector, field_mappings, preprocessing,
			confidence, success_count, failure_count, is_active,
			last_used_at, last_checked_at, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 1, NULL, NULL, ?)
	`, m.ID, m.RegionID, m.SourceURL, string(m.DataType), m.Version,
		m.StructureHash, m.PromptHash, m.PromptVersion,
		m.ContainerSelector, m.ItemSelector, string(mappingsJSON), string(preprocessingJSON),
		m.Confidence, m.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

// IncrementSuccess bumps the success counter and refreshes last_used_at.
// Unknown ids are a no-op.
func (s *ManifestService) IncrementSuccess(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE manifests
		SET success_count = success_count + 1, last_used_at = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// IncrementFailure bumps the failure counter. Unknown ids are a no-op.
func (s *ManifestService) IncrementFailure(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE manifests
		SET failure_count = failure_count + 1
		WHERE id = ?
	`, id)
	return err
}

// History returns versions for the key, newest first, capped at limit.
// A non-positive limit applies the default of 10.
func (s *ManifestService) History(ctx context.Context, regionID, sourceURL string, dataType civet.DataType, limit int) ([]*civet.StructuralManifest, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+manifestColumns+`
		FROM manifests
		WHERE region_id = ? AND source_url = ? AND data_type = ?
		ORDER BY version DESC
		LIMIT ?
	`, regionID, sourceURL, string(dataType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manifests []*civet.StructuralManifest
	for rows.Next() {
		m, err := scanManifest(rows.Scan)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	return manifests, rows.Err()
}

// MarkChecked updates last_checked_at only. Unknown ids are a no-op.
func (s *ManifestService) MarkChecked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE manifests
		SET last_checked_at = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// scanManifest reads one manifest row. The scan argument order must match
// manifestColumns.
func scanManifest(scan func(dest ...any) error) (*civet.StructuralManifest, error) {
	var m civet.StructuralManifest
	var dataType, mappingsJSON, preprocessingJSON, createdAt string
	var lastUsedAt, lastCheckedAt sql.NullString

	if err := scan(&m.ID, &m.RegionID, &m.SourceURL, &dataType, &m.Version,
		&m.StructureHash, &m.PromptHash, &m.PromptVersion,
		&m.ContainerSelector, &m.ItemSelector, &mappingsJSON, &preprocessingJSON,
		&m.Confidence, &m.SuccessCount, &m.FailureCount, &m.IsActive,
		&lastUsedAt, &lastCheckedAt, &createdAt); err != nil {
		return nil, err
	}

	m.DataType = civet.DataType(dataType)
	if err := json.Unmarshal([]byte(mappingsJSON), &m.FieldMappings); err != nil {
		return nil, fmt.Errorf("failed to decode field mappings: %w", err)
	}
	if err := json.Unmarshal([]byte(preprocessingJSON), &m.Preprocessing); err != nil {
		return nil, fmt.Errorf("failed to decode preprocessing: %w", err)
	}

	var err error
	m.LastUsedAt, err = parseNullableRFC3339(lastUsedAt, "last_used_at")
	if err != nil {
		return nil, err
	}
	m.LastCheckedAt, err = parseNullableRFC3339(lastCheckedAt, "last_checked_at")
	if err != nil {
		return nil, err
	}
	m.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &m, nil
}
