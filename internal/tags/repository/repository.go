package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/platform/apperr"
)

// Tag is one preference tag attached to a user, optionally traced back to
// the trip it was learned from.
type Tag struct {
	ID           int64    `json:"id"`
	UserID       int64    `json:"user_id"`
	Tag          string   `json:"tag"`
	Weight       *float64 `json:"weight"`
	SourceTripID *int64   `json:"source_trip_id"`
}

// CreateParams are the inputs for creating a tag.
type CreateParams struct {
	UserID       int64
	Tag          string
	Weight       *float64
	SourceTripID *int64
}

// UpdateParams are the patchable fields of a tag. Nil means unchanged.
type UpdateParams struct {
	Tag          *string
	Weight       *float64
	SourceTripID *int64
}

// UpsertItem is one entry of a bulk upsert, keyed by tag name per user.
type UpsertItem struct {
	Tag          string
	Weight       *float64
	SourceTripID *int64
}

// ListFilter narrows List results.
type ListFilter struct {
	Tag          string
	SourceTripID int64
	Limit        int
	Offset       int
}

// Repository provides user tag persistence.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Tag, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]Tag, error)
	Update(ctx context.Context, tagID, userID int64, params UpdateParams) (Tag, error)
	Delete(ctx context.Context, tagID, userID int64) error
	BulkUpsert(ctx context.Context, userID int64, items []UpsertItem) ([]Tag, error)
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a tag repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const tagColumns = `id, user_id, tag, weight, source_trip_id`

func scanTag(row pgx.Row) (Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.UserID, &t.Tag, &t.Weight, &t.SourceTripID)
	return t, err
}

// Create inserts one tag row.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Tag, error) {
	query := `
		INSERT INTO user_tags (user_id, tag, weight, source_trip_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + tagColumns

	tag, err := scanTag(r.pool.QueryRow(ctx, query,
		params.UserID, params.Tag, params.Weight, params.SourceTripID,
	))
	if err != nil {
		return Tag{}, fmt.Errorf("insert user tag: %w", err)
	}
	return tag, nil
}

// List returns the user's tags, newest first.
func (r *Repo) List(ctx context.Context, userID int64, filter ListFilter) ([]Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM user_tags WHERE user_id = $1`
	args := []any{userID}

	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND tag = $%d", len(args))
	}
	if filter.SourceTripID > 0 {
		args = append(args, filter.SourceTripID)
		query += fmt.Sprintf(" AND source_trip_id = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user tags: %w", err)
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Update patches the tag row, scoped to its owner.
func (r *Repo) Update(ctx context.Context, tagID, userID int64, params UpdateParams) (Tag, error) {
	sets := make([]string, 0, 3)
	args := []any{tagID, userID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Tag != nil {
		add("tag", *params.Tag)
	}
	if params.Weight != nil {
		add("weight", *params.Weight)
	}
	if params.SourceTripID != nil {
		add("source_trip_id", *params.SourceTripID)
	}
	if len(sets) == 0 {
		return Tag{}, apperr.BadRequest("no fields to update")
	}

	query := `UPDATE user_tags SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND user_id = $2
		RETURNING ` + tagColumns

	tag, err := scanTag(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, apperr.NotFound("user_tag_not_found")
		}
		return Tag{}, fmt.Errorf("update user tag: %w", err)
	}
	return tag, nil
}

// Delete removes the tag row, scoped to its owner.
func (r *Repo) Delete(ctx context.Context, tagID, userID int64) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM user_tags WHERE id = $1 AND user_id = $2`, tagID, userID)
	if err != nil {
		return fmt.Errorf("delete user tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("user_tag_not_found")
	}
	return nil
}

// BulkUpsert creates or updates tags by name for one user in a single
// transaction. Existing tags keep their weight and source trip unless the
// item provides new values.
func (r *Repo) BulkUpsert(ctx context.Context, userID int64, items []UpsertItem) ([]Tag, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bulk upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, tag FROM user_tags WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user tags: %w", err)
	}
	existing := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan existing tag: %w", err)
		}
		existing[name] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing tags: %w", err)
	}

	result := make([]Tag, 0, len(items))
	for _, item := range items {
		var tag Tag
		if id, ok := existing[item.Tag]; ok {
			tag, err = scanTag(tx.QueryRow(ctx, `
				UPDATE user_tags
				SET weight = COALESCE($1, weight), source_trip_id = COALESCE($2, source_trip_id)
				WHERE id = $3
				RETURNING `+tagColumns,
				item.Weight, item.SourceTripID, id,
			))
		} else {
			tag, err = scanTag(tx.QueryRow(ctx, `
				INSERT INTO user_tags (user_id, tag, weight, source_trip_id)
				VALUES ($1, $2, $3, $4)
				RETURNING `+tagColumns,
				userID, item.Tag, item.Weight, item.SourceTripID,
			))
		}
		if err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", item.Tag, err)
		}
		result = append(result, tag)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk upsert: %w", err)
	}
	return result, nil
}
