package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/platform/apperr"
)

// Report is one stored trip report file.
type Report struct {
	ID          int64          `json:"id"`
	TripID      int64          `json:"trip_id"`
	Filename    string         `json:"filename"`
	Format      *string        `json:"format"`
	ContentType *string        `json:"content_type"`
	FileSize    int64          `json:"file_size"`
	StorageKey  string         `json:"-"`
	Meta        map[string]any `json:"meta"`
	CreatedAt   string         `json:"created_at"`
}

// CreateParams are the inputs for recording an uploaded report.
type CreateParams struct {
	TripID      int64
	UserID      int64
	Filename    string
	Format      *string
	ContentType *string
	FileSize    int64
	StorageKey  string
	Meta        map[string]any
}

// Repository provides report persistence scoped to trip ownership.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Report, error)
	ListByTrip(ctx context.Context, tripID, userID int64) ([]Report, error)
	Get(ctx context.Context, reportID, tripID, userID int64) (Report, error)
	Delete(ctx context.Context, reportID, tripID, userID int64) (string, error)
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a report repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const reportColumns = `id, trip_id, filename, format, content_type, file_size, storage_key, meta, created_at`

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	var createdAt time.Time
	err := row.Scan(
		&r.ID, &r.TripID, &r.Filename, &r.Format, &r.ContentType,
		&r.FileSize, &r.StorageKey, &r.Meta, &createdAt,
	)
	if err != nil {
		return Report{}, err
	}
	r.CreatedAt = createdAt.Format(time.RFC3339)
	return r, nil
}

// Create records an uploaded report after verifying trip ownership.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Report, error) {
	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reports (trip_id, filename, format, content_type, file_size, storage_key, meta)
		SELECT t.id, $3, $4, $5, $6, $7, $8
		FROM trips t
		WHERE t.id = $1 AND t.user_id = $2
		RETURNING `+reportColumns,
		params.TripID, params.UserID, params.Filename, params.Format,
		params.ContentType, params.FileSize, params.StorageKey, meta,
	)

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, apperr.NotFound("trip_not_found")
	}
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", err)
	}
	return report, nil
}

// ListByTrip returns the trip's reports, newest first.
func (r *Repo) ListByTrip(ctx context.Context, tripID, userID int64) ([]Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE trip_id = $1
		  AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)
		ORDER BY created_at DESC, id DESC`,
		tripID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Get fetches one report scoped to the trip and its owner.
func (r *Repo) Get(ctx context.Context, reportID, tripID, userID int64) (Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = $1 AND trip_id = $2
		  AND trip_id IN (SELECT id FROM trips WHERE user_id = $3)`,
		reportID, tripID, userID,
	)

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, apperr.NotFound("report_not_found")
	}
	if err != nil {
		return Report{}, fmt.Errorf("query report: %w", err)
	}
	return report, nil
}

// Delete removes the report row and returns its storage key so the caller
// can delete the object.
func (r *Repo) Delete(ctx context.Context, reportID, tripID, userID int64) (string, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM reports
		WHERE id = $1 AND trip_id = $2
		  AND trip_id IN (SELECT id FROM trips WHERE user_id = $3)
		RETURNING storage_key`,
		reportID, tripID, userID,
	)

	var storageKey string
	err := row.Scan(&storageKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("report_not_found")
	}
	if err != nil {
		return "", fmt.Errorf("delete report: %w", err)
	}
	return storageKey, nil
}
