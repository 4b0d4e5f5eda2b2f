// Package worker advances uploaded calls through the processing lifecycle.
// It produces placeholder summaries only; real transcription is out of scope.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/bridgesync/bridgesync/internal/model"
	"github.com/bridgesync/bridgesync/internal/queue"
)

// UploadStore is the slice of the upload repository the worker needs.
type UploadStore interface {
	SetStatus(ctx context.Context, id string, status model.UploadStatus) error
}

// SummaryStore inserts summary rows for completed uploads.
type SummaryStore interface {
	Insert(ctx context.Context, s *model.Summary) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	uploads   UploadStore
	summaries SummaryStore
	logger    *slog.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(uploads UploadStore, summaries SummaryStore, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{uploads: uploads, summaries: summaries, logger: logger}
}

// Handler registers the process job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ProcessAudioTask, p.handleProcess)
	return mux
}

func (p *Processor) handleProcess(ctx context.Context, task *asynq.Task) error {
	var payload queue.ProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	failure := func(err error) error {
		p.logger.Error("processing failed", "upload", payload.UploadID, "error", err)
		_ = p.uploads.SetStatus(ctx, payload.UploadID, model.StatusError)
		return err
	}
	if err := p.uploads.SetStatus(ctx, payload.UploadID, model.StatusTranscribing); err != nil {
		return failure(err)
	}
	summary := placeholderSummary(payload)
	if err := p.summaries.Insert(ctx, summary); err != nil {
		return failure(err)
	}
	if err := p.uploads.SetStatus(ctx, payload.UploadID, model.StatusCompleted); err != nil {
		return failure(err)
	}
	p.logger.Info("upload processed", "upload", payload.UploadID, "summary", summary.ID)
	return nil
}

func placeholderSummary(payload queue.ProcessPayload) *model.Summary {
	return &model.Summary{
		ID:          uuid.NewString(),
		AudioID:     payload.UploadID,
		SummaryText: fmt.Sprintf("Summary for %s is being prepared. Transcription is not wired up yet; this row marks the call as processed.", payload.Filename),
		ActionPoints: []string{
			"Review the recorded call",
			"Share highlights with the project manager",
			"Schedule the follow-up",
		},
	}
}
