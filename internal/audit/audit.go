// Package audit serves the append-only trail of stage transitions and
// status changes. Rows are written by the trips repository inside its
// transactions; this package only reads them.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audit row.
type Entry struct {
	ID        int64   `json:"id"`
	UserID    *int64  `json:"user_id"`
	TripID    *int64  `json:"trip_id"`
	Action    string  `json:"action"`
	Detail    *string `json:"detail"`
	CreatedAt string  `json:"created_at"`
}

// Filter narrows audit queries. Zero values mean no filtering.
type Filter struct {
	TripID int64
	Action string
	Limit  int
	Offset int
}

// Reader queries the audit trail scoped to one user.
type Reader interface {
	List(ctx context.Context, userID int64, filter Filter) ([]Entry, error)
}

// Repo is the PostgreSQL implementation of Reader.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Reader = (*Repo)(nil)

// NewRepo creates an audit reader backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// List returns the user's audit entries, newest first.
func (r *Repo) List(ctx context.Context, userID int64, filter Filter) ([]Entry, error) {
	query := `
		SELECT id, user_id, trip_id, action, detail, created_at
		FROM audit_logs
		WHERE user_id = $1`
	args := []any{userID}

	if filter.TripID > 0 {
		args = append(args, filter.TripID)
		query += fmt.Sprintf(" AND trip_id = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.UserID, &e.TripID, &e.Action, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.CreatedAt = createdAt.Format(time.RFC3339)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
