// Package uploader drives the upload pipeline: resolve the principal, write
// the blob, mint a signed URL, insert the metadata row. Each step short
// circuits on failure and nothing is retried.
package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bridgesync/bridgesync/internal/model"
)

// SessionAccessor resolves the authenticated principal for a request.
type SessionAccessor interface {
	CurrentPrincipal(ctx context.Context) (model.Principal, bool)
}

// ObjectStore is the slice of the object store the pipeline needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, overwrite bool) error
	SignURL(ctx context.Context, key string, ttl time.Duration) (model.SignedAccessURL, error)
}

// RecordStore inserts upload metadata rows.
type RecordStore interface {
	Insert(ctx context.Context, rec *model.UploadRecord) error
}

// Result is a successful upload: the inserted record plus a signed URL for
// immediate playback.
type Result struct {
	Record model.UploadRecord    `json:"record"`
	Signed model.SignedAccessURL `json:"signed"`
}

// Orchestrator wires the three collaborators into the pipeline.
type Orchestrator struct {
	sessions SessionAccessor
	store    ObjectStore
	records  RecordStore
	ttl      time.Duration
	logger   *slog.Logger
}

// New constructs an Orchestrator. ttl is the signed URL lifetime.
func New(sessions SessionAccessor, store ObjectStore, records RecordStore, ttl time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{sessions: sessions, store: store, records: records, ttl: ttl, logger: logger}
}

// Upload runs the pipeline for one selected file. Re-uploading the same
// filename for the same principal overwrites the earlier object: the storage
// key is derived from principal id and filename only, and the write is issued
// with upsert semantics.
func (o *Orchestrator) Upload(ctx context.Context, file io.Reader, size int64, filename, contentType string) (*Result, error) {
	principal, ok := o.sessions.CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	key := fmt.Sprintf("%s/%s", principal.ID, filename)

	if err := o.store.Put(ctx, key, file, size, contentType, true); err != nil {
		return nil, &StorageWriteError{Key: key, Err: err}
	}

	signed, err := o.store.SignURL(ctx, key, o.ttl)
	if err != nil {
		return nil, &SignURLError{Key: key, Err: err}
	}

	rec := &model.UploadRecord{
		ID:       uuid.NewString(),
		UserID:   principal.ID,
		FilePath: key,
		Status:   model.StatusUploaded,
	}
	if err := o.records.Insert(ctx, rec); err != nil {
		// The blob is stored but has no row; flag it for out-of-band cleanup.
		o.logger.Warn("orphaned blob: metadata insert failed after storage write",
			"key", key, "user", principal.ID, "error", err)
		return nil, &MetadataInsertError{Key: key, Err: err}
	}

	return &Result{Record: *rec, Signed: signed}, nil
}
