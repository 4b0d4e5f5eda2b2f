// Package repository wraps all SQL used throughout the API and worker.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a signup reuses an existing email.
var ErrDuplicateEmail = errors.New("email already registered")

// User is a row in the users table. The password hash never leaves the
// repository layer except to the auth service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository handles the identity rows backing email/password accounts.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account row.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert user: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the account registered under email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email=$1
	`, email)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Get returns the account with the given id.
func (r *UserRepository) Get(ctx context.Context, id string) (*User, error) {
	var u User
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE id=$1
	`, id)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
