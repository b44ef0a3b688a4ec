package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Message is one persisted conversation turn of a trip.
type Message struct {
	ID        int64          `json:"id"`
	TripID    int64          `json:"trip_id"`
	UserID    int64          `json:"user_id"`
	Stage     string         `json:"stage"`
	Role      string         `json:"role"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"message_meta"`
	CreatedAt string         `json:"created_at"`
}

// SaveParams are the inputs for persisting a conversation turn.
type SaveParams struct {
	TripID  int64
	UserID  int64
	Stage   string
	Role    string
	Message string
	Meta    map[string]any
}

// ListFilter narrows conversation queries. Zero values mean no filtering.
type ListFilter struct {
	Stage string
	Limit int
}

// Reader provides read access to conversation history.
type Reader interface {
	ListByTrip(ctx context.Context, tripID, userID int64, filter ListFilter) ([]Message, error)
}

// Writer provides write access to conversation history.
type Writer interface {
	Save(ctx context.Context, params SaveParams) (Message, error)
}

// Repository combines conversation reads and writes.
type Repository interface {
	Reader
	Writer
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a conversation repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const messageColumns = `id, trip_id, user_id, stage, role, message, message_meta, created_at`

// Save inserts one conversation turn and returns the stored row.
func (r *Repo) Save(ctx context.Context, params SaveParams) (Message, error) {
	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (trip_id, user_id, stage, role, message, message_meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		params.TripID, params.UserID, params.Stage, params.Role, params.Message, meta,
	)

	var m Message
	var createdAt time.Time
	if err := row.Scan(&m.ID, &m.TripID, &m.UserID, &m.Stage, &m.Role, &m.Message, &m.Meta, &createdAt); err != nil {
		return Message{}, fmt.Errorf("insert conversation message: %w", err)
	}
	m.CreatedAt = createdAt.Format(time.RFC3339)
	return m, nil
}

// ListByTrip returns the trip's conversation history in chronological order.
// Ownership is enforced through the user_id predicate.
func (r *Repo) ListByTrip(ctx context.Context, tripID, userID int64, filter ListFilter) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM conversations WHERE trip_id = $1 AND user_id = $2`
	args := []any{tripID, userID}
	if filter.Stage != "" {
		args = append(args, filter.Stage)
		query += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		var createdAt time.Time
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Stage, &m.Role, &m.Message, &m.Meta, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation message: %w", err)
		}
		m.CreatedAt = createdAt.Format(time.RFC3339)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
