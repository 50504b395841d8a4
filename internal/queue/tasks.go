// Package queue runs the optional background work on uploaded files: text
// extraction for PDFs and preview thumbnails for images.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskExtractText is scheduled for every uploaded PDF.
	TaskExtractText = "file:extract_text"
	// TaskThumbnail is scheduled for every uploaded image.
	TaskThumbnail = "file:thumbnail"

	maxRetry    = 5
	taskTimeout = 5 * time.Minute
)

// FilePayload tells the worker which record and blob to work on.
type FilePayload struct {
	FileID      int64  `json:"file_id"`
	StoragePath string `json:"storage_path"`
	Name        string `json:"name"`
}

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func newTask(taskType string, payload FilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, data, asynq.MaxRetry(maxRetry), asynq.Timeout(taskTimeout)), nil
}

// Enqueue schedules taskType for payload.
func Enqueue(ctx context.Context, client Enqueuer, taskType string, payload FilePayload) error {
	task, err := newTask(taskType, payload)
	if err != nil {
		return err
	}
	if _, err := client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s task: %w", taskType, err)
	}
	return nil
}

func decodePayload(task *asynq.Task) (FilePayload, error) {
	var payload FilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.FileID <= 0 || payload.StoragePath == "" {
		return payload, fmt.Errorf("incomplete payload for file %d: %w", payload.FileID, asynq.SkipRetry)
	}
	return payload, nil
}

// RedisOpt builds the asynq connection options from the queue settings.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}
