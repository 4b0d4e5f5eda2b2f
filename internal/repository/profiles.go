package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgesync/bridgesync/internal/model"
)

// ProfileRepository handles the completed-profile rows (name and role).
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository constructs a repository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Upsert inserts the profile or replaces name/email/role when the id already
// has one. Profile completion can be re-run at any time.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, email, role, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, role=EXCLUDED.role
	`, p.ID, p.Name, p.Email, string(p.Role), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Get returns the profile for a user id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*model.Profile, error) {
	var (
		p    model.Profile
		role string
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, created_at FROM profiles WHERE id=$1
	`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &role, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	p.Role = model.ParseRole(role)
	return &p, nil
}
