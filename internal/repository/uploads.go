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

// UploadRepository handles the audio_uploads metadata rows.
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository constructs a repository.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// Insert records a freshly stored blob. Rows start in the uploaded status.
func (r *UploadRepository) Insert(ctx context.Context, rec *model.UploadRecord) error {
	if rec.Status == "" {
		rec.Status = model.StatusUploaded
	}
	rec.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audio_uploads (id, user_id, file_path, status, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, rec.ID, rec.UserID, rec.FilePath, string(rec.Status), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// Get returns one upload row by id.
func (r *UploadRepository) Get(ctx context.Context, id string) (*model.UploadRecord, error) {
	var (
		rec    model.UploadRecord
		status string
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, file_path, status, created_at FROM audio_uploads WHERE id=$1
	`, id)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.FilePath, &status, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("upload %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("select upload: %w", err)
	}
	rec.Status = model.UploadStatus(status)
	return &rec, nil
}

// ListByOwner returns the owner's uploads newest first.
func (r *UploadRepository) ListByOwner(ctx context.Context, userID string) ([]model.UploadRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, file_path, status, created_at
		FROM audio_uploads WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select uploads: %w", err)
	}
	defer rows.Close()

	var out []model.UploadRecord
	for rows.Next() {
		var (
			rec    model.UploadRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FilePath, &status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		rec.Status = model.UploadStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return out, nil
}

// SetStatus moves an upload through the processing lifecycle.
func (r *UploadRepository) SetStatus(ctx context.Context, id string, status model.UploadStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE audio_uploads SET status=$1 WHERE id=$2
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	return nil
}
