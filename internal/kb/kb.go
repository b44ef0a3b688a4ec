// Package kb stores free-form knowledge base notes attached to trips.
// These back the agent's context building; vector retrieval is out of
// scope here.
package kb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/platform/apperr"
)

// Entry is one knowledge base note.
type Entry struct {
	ID        int64          `json:"id"`
	TripID    int64          `json:"trip_id"`
	Source    *string        `json:"source"`
	Title     *string        `json:"title"`
	Content   *string        `json:"content"`
	Meta      map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
}

// CreateParams are the inputs for creating an entry.
type CreateParams struct {
	TripID  int64
	UserID  int64
	Source  *string
	Title   *string
	Content *string
	Meta    map[string]any
}

// UpdateParams are the patchable fields of an entry. Nil means unchanged.
type UpdateParams struct {
	Source  *string
	Title   *string
	Content *string
	Meta    map[string]any
}

// Repository provides knowledge base persistence scoped to trip ownership.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Entry, error)
	ListByTrip(ctx context.Context, tripID, userID int64, source string) ([]Entry, error)
	Update(ctx context.Context, entryID, userID int64, params UpdateParams) (Entry, error)
	Delete(ctx context.Context, entryID, userID int64) error
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a knowledge base repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const entryColumns = `id, trip_id, source, title, content, metadata, created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var createdAt time.Time
	err := row.Scan(&e.ID, &e.TripID, &e.Source, &e.Title, &e.Content, &e.Meta, &createdAt)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = createdAt.Format(time.RFC3339)
	return e, nil
}

// Create inserts an entry after verifying trip ownership.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Entry, error) {
	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO kb_entries (trip_id, source, title, content, metadata)
		SELECT t.id, $3, $4, $5, $6
		FROM trips t
		WHERE t.id = $1 AND t.user_id = $2
		RETURNING `+entryColumns,
		params.TripID, params.UserID, params.Source, params.Title, params.Content, meta,
	)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.NotFound("trip_not_found")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("insert kb entry: %w", err)
	}
	return entry, nil
}

// ListByTrip returns the trip's entries, optionally filtered by source.
func (r *Repo) ListByTrip(ctx context.Context, tripID, userID int64, source string) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM kb_entries
		WHERE trip_id = $1
		  AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)`
	args := []any{tripID, userID}
	if source != "" {
		args = append(args, source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query kb entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kb entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update patches the given fields of an entry owned by the user.
func (r *Repo) Update(ctx context.Context, entryID, userID int64, params UpdateParams) (Entry, error) {
	var sets []string
	args := []any{entryID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Source != nil {
		add("source", *params.Source)
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Content != nil {
		add("content", *params.Content)
	}
	if params.Meta != nil {
		add("metadata", params.Meta)
	}
	if len(sets) == 0 {
		return Entry{}, apperr.BadRequest("no fields to update")
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE kb_entries SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)
		RETURNING `+entryColumns,
		args...,
	)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.NotFound("kb_entry_not_found")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("update kb entry: %w", err)
	}
	return entry, nil
}

// Delete removes an entry owned by the user.
func (r *Repo) Delete(ctx context.Context, entryID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM kb_entries
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)`,
		entryID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete kb entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("kb_entry_not_found")
	}
	return nil
}
