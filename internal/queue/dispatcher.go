package queue

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/medical-filemanager/internal/core/events"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
)

// Dispatcher turns upload events into background tasks. Without an enqueuer
// it only logs what it would have scheduled.
type Dispatcher struct {
	client Enqueuer
	logger *slog.Logger
}

func NewDispatcher(client Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// Register subscribes the dispatcher to upload events on bus.
func (d *Dispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeFileUploaded, d.HandleFileUploaded)
}

// TaskFor returns the task an uploaded file of fileType needs, if any.
func TaskFor(fileType string) (string, bool) {
	switch medicalfile.FileType(fileType) {
	case medicalfile.FileTypePDF:
		return TaskExtractText, true
	case medicalfile.FileTypeImage:
		return TaskThumbnail, true
	default:
		return "", false
	}
}

func (d *Dispatcher) HandleFileUploaded(ctx context.Context, event events.Event) error {
	uploaded, ok := event.(*events.FileUploadedEvent)
	if !ok {
		d.logger.Warn("unexpected event payload", "event_type", event.EventType())
		return nil
	}

	taskType, ok := TaskFor(uploaded.FileType)
	if !ok {
		return nil
	}

	if d.client == nil {
		d.logger.Info("background processing disabled, skipping task",
			"task", taskType,
			"file_id", uploaded.FileID)
		return nil
	}

	payload := FilePayload{
		FileID:      uploaded.FileID,
		StoragePath: uploaded.StoragePath,
		Name:        uploaded.Name,
	}
	if err := Enqueue(ctx, d.client, taskType, payload); err != nil {
		d.logger.Error("failed to enqueue task", "task", taskType, "file_id", uploaded.FileID, "error", err)
		return err
	}

	d.logger.Info("task enqueued", "task", taskType, "file_id", uploaded.FileID)
	return nil
}
