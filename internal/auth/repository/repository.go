package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/platform/apperr"
)

// User is a persisted account row.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository provides user persistence.
type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string) (User, error)
	GetByLogin(ctx context.Context, login string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a user repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new user. Username and email collisions map to a
// conflict error.
func (r *Repo) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, email, passwordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apperr.Conflict("username_or_email_taken")
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByLogin fetches a user by username or email.
func (r *Repo) GetByLogin(ctx context.Context, login string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`,
		login,
	)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return User{}, fmt.Errorf("query user by login: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound("user_not_found")
	}
	if err != nil {
		return User{}, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}
