package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/civet"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ civet.SourceService = (*SourceService)(nil)

// SourceService implements civet.SourceService using SQLite.
type SourceService struct {
	db *DB
}

// NewSourceService creates a new SourceService.
func NewSourceService(db *DB) *SourceService {
	return &SourceService{db: db}
}

// CreateSource registers a new source. Returns ECONFLICT if the
// (region, URL, data type) key is already registered.
func (s *SourceService) CreateSource(ctx context.Context, source *civet.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}

	var existing string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sources
		WHERE region_id = ? AND url = ? AND data_type = ?
	`, source.RegionID, source.URL, string(source.DataType)).Scan(&existing)
	if err == nil {
		return civet.Errorf(civet.ECONFLICT, "source already registered for %s %s %s", source.RegionID, source.URL, source.DataType)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	source.ID = uuid.New().String()
	source.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (id, region_id, url, data_type, content_goal, render_js, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, source.ID, source.RegionID, source.URL, string(source.DataType),
		source.ContentGoal, source.RenderJS, source.CreatedAt.Format(time.RFC3339))
	return err
}

// FindSourceByID retrieves a source by ID. Returns ENOTFOUND if missing.
func (s *SourceService) FindSourceByID(ctx context.Context, id string) (*civet.Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, region_id, url, data_type, content_goal, render_js, created_at
		FROM sources
		WHERE id = ?
	`, id)

	source, err := scanSource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, civet.Errorf(civet.ENOTFOUND, "source not found")
	}
	if err != nil {
		return nil, err
	}
	return source, nil
}

// FindSources retrieves sources matching the filter, newest first.
func (s *SourceService) FindSources(ctx context.Context, filter civet.SourceFilter) ([]*civet.Source, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT id, region_id, url, data_type, content_goal, render_js, created_at
		FROM sources
		WHERE 1=1
	`)

	if filter.RegionID != nil {
		query.WriteString(" AND region_id = ?")
		args = append(args, *filter.RegionID)
	}
	if filter.DataType != nil {
		query.WriteString(" AND data_type = ?")
		args = append(args, string(*filter.DataType))
	}

	query.WriteString(" ORDER BY created_at DESC, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*civet.Source
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// DeleteSource permanently removes a source. Returns ENOTFOUND if missing.
func (s *SourceService) DeleteSource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return civet.Errorf(civet.ENOTFOUND, "source not found")
	}
	return nil
}

// scanSource reads one source row.
func scanSource(scan func(dest ...any) error) (*civet.Source, error) {
	var source civet.Source
	var dataType, createdAt string

	if err := scan(&source.ID, &source.RegionID, &source.URL, &dataType,
		&source.ContentGoal, &source.RenderJS, &createdAt); err != nil {
		return nil, err
	}

	source.DataType = civet.DataType(dataType)

	var err error
	source.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &source, nil
}
