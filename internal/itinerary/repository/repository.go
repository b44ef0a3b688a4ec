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

// Item is one scheduled entry of a trip's day plan.
type Item struct {
	ID        int64    `json:"id"`
	TripID    int64    `json:"trip_id"`
	Day       int      `json:"day"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
	Kind      *string  `json:"kind"`
	Title     *string  `json:"title"`
	Location  *string  `json:"location"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Details   *string  `json:"details"`
}

// CreateParams are the inputs for creating an itinerary item.
type CreateParams struct {
	TripID    int64
	UserID    int64
	Day       int
	StartTime *string
	EndTime   *string
	Kind      *string
	Title     *string
	Location  *string
	Lat       *float64
	Lng       *float64
	Details   *string
}

// UpdateParams are the patchable fields of an item. Nil means unchanged.
type UpdateParams struct {
	Day       *int
	StartTime *string
	EndTime   *string
	Kind      *string
	Title     *string
	Location  *string
	Lat       *float64
	Lng       *float64
	Details   *string
}

// Repository provides itinerary persistence scoped to trip ownership.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Item, error)
	ListByTrip(ctx context.Context, tripID, userID int64, day int) ([]Item, error)
	Update(ctx context.Context, itemID, userID int64, params UpdateParams) (Item, error)
	Delete(ctx context.Context, itemID, userID int64) error
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates an itinerary repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `id, trip_id, day, start_time, end_time, kind, title, location, lat, lng, details`

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(
		&i.ID, &i.TripID, &i.Day, &i.StartTime, &i.EndTime,
		&i.Kind, &i.Title, &i.Location, &i.Lat, &i.Lng, &i.Details,
	)
	return i, err
}

// Create inserts an item after verifying trip ownership.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Item, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO itinerary_items (trip_id, day, start_time, end_time, kind, title, location, lat, lng, details)
		SELECT t.id, $3, $4, $5, $6, $7, $8, $9, $10, $11
		FROM trips t
		WHERE t.id = $1 AND t.user_id = $2
		RETURNING `+itemColumns,
		params.TripID, params.UserID, params.Day, params.StartTime, params.EndTime,
		params.Kind, params.Title, params.Location, params.Lat, params.Lng, params.Details,
	)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound("trip_not_found")
	}
	if err != nil {
		return Item{}, fmt.Errorf("insert itinerary item: %w", err)
	}
	return item, nil
}

// ListByTrip returns the trip's items ordered by day and start time.
// Day 0 means no day filter.
func (r *Repo) ListByTrip(ctx context.Context, tripID, userID int64, day int) ([]Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM itinerary_items
		WHERE trip_id = $1
		  AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)`
	args := []any{tripID, userID}
	if day > 0 {
		args = append(args, day)
		query += fmt.Sprintf(" AND day = $%d", len(args))
	}
	query += " ORDER BY day ASC, start_time ASC NULLS LAST, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query itinerary items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan itinerary item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update patches the given fields of an item owned by the user.
func (r *Repo) Update(ctx context.Context, itemID, userID int64, params UpdateParams) (Item, error) {
	var sets []string
	args := []any{itemID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Day != nil {
		add("day", *params.Day)
	}
	if params.StartTime != nil {
		add("start_time", *params.StartTime)
	}
	if params.EndTime != nil {
		add("end_time", *params.EndTime)
	}
	if params.Kind != nil {
		add("kind", *params.Kind)
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Location != nil {
		add("location", *params.Location)
	}
	if params.Lat != nil {
		add("lat", *params.Lat)
	}
	if params.Lng != nil {
		add("lng", *params.Lng)
	}
	if params.Details != nil {
		add("details", *params.Details)
	}
	if len(sets) == 0 {
		return Item{}, apperr.BadRequest("no fields to update")
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE itinerary_items SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)
		RETURNING `+itemColumns,
		args...,
	)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound("itinerary_item_not_found")
	}
	if err != nil {
		return Item{}, fmt.Errorf("update itinerary item: %w", err)
	}
	return item, nil
}

// Delete removes an item owned by the user.
func (r *Repo) Delete(ctx context.Context, itemID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM itinerary_items
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete itinerary item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("itinerary_item_not_found")
	}
	return nil
}
