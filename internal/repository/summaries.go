package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgesync/bridgesync/internal/model"
)

// SummaryRepository handles call-summary rows.
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository constructs a repository.
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// Insert stores one summary for a processed upload.
func (r *SummaryRepository) Insert(ctx context.Context, s *model.Summary) error {
	s.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO summaries (id, audio_id, summary_text, action_points, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, s.ID, s.AudioID, s.SummaryText, s.ActionPoints, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// List returns all summaries newest first.
func (r *SummaryRepository) List(ctx context.Context) ([]model.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, audio_id, summary_text, action_points, created_at
		FROM summaries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ListForOwner returns the summaries of one uploader's calls newest first.
func (r *SummaryRepository) ListForOwner(ctx context.Context, userID string) ([]model.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.audio_id, s.summary_text, s.action_points, s.created_at
		FROM summaries s JOIN audio_uploads a ON a.id = s.audio_id
		WHERE a.user_id=$1 ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]model.Summary, error) {
	var out []model.Summary
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.AudioID, &s.SummaryText, &s.ActionPoints, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}
