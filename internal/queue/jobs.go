package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ProcessAudioTask is scheduled each time an audio file is uploaded.
	ProcessAudioTask = "audio:process"
)

// ProcessPayload is serialized into the task payload so the worker knows
// which upload to advance.
type ProcessPayload struct {
	UploadID  string `json:"upload_id"`
	ObjectKey string `json:"object_key"`
	Filename  string `json:"filename"`
}

// Enqueuer wraps an asynq client so callers depend on a narrow interface.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueProcess enqueues an audio processing job for one upload.
func (e *Enqueuer) EnqueueProcess(ctx context.Context, payload ProcessPayload) error {
	return EnqueueProcess(ctx, e.client, payload)
}

// EnqueueProcess enqueues an audio processing job.
func EnqueueProcess(ctx context.Context, client *asynq.Client, payload ProcessPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ProcessAudioTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue process task: %w", err)
	}
	return nil
}
