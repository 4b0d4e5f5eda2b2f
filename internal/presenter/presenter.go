// Package presenter turns a principal's upload rows into a render-ready
// sequence with fresh signed URLs.
package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bridgesync/bridgesync/internal/model"
)

// QueryError wraps a failed metadata query. No partial list accompanies it.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("upload query failed: %v", e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }

// RecordLister queries upload rows by owner, newest first.
type RecordLister interface {
	ListByOwner(ctx context.Context, userID string) ([]model.UploadRecord, error)
}

// URLSigner mints time-limited read URLs for stored objects.
type URLSigner interface {
	SignURL(ctx context.Context, key string, ttl time.Duration) (model.SignedAccessURL, error)
}

// PresentedUpload pairs one upload row with its signed URL. SignedURL is
// empty when the individual mint failed; the record is still listed.
type PresentedUpload struct {
	Record    model.UploadRecord `json:"record"`
	SignedURL string             `json:"signedUrl"`
	ExpiresAt time.Time          `json:"expiresAt,omitempty"`
}

// Presenter fetches and resolves a principal's uploads.
type Presenter struct {
	records RecordLister
	signer  URLSigner
	ttl     time.Duration
	logger  *slog.Logger
}

// New constructs a Presenter. ttl is the signed URL lifetime.
func New(records RecordLister, signer URLSigner, ttl time.Duration, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{records: records, signer: signer, ttl: ttl, logger: logger}
}

// ListUploads returns the principal's uploads newest first, each with a fresh
// signed URL. URLs are minted concurrently; the output order is fixed by the
// query order, not by mint completion. A single failed mint degrades that
// record to an empty URL instead of failing the list.
func (p *Presenter) ListUploads(ctx context.Context, principal model.Principal) ([]PresentedUpload, error) {
	records, err := p.records.ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	out := make([]PresentedUpload, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range records {
		i, rec := i, rec
		out[i].Record = rec
		g.Go(func() error {
			signed, err := p.signer.SignURL(gctx, rec.FilePath, p.ttl)
			if err != nil {
				p.logger.Warn("signed url mint failed, listing without playback url",
					"key", rec.FilePath, "error", err)
				return nil
			}
			out[i].SignedURL = signed.URL
			out[i].ExpiresAt = signed.ExpiresAt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &QueryError{Err: err}
	}
	return out, nil
}
