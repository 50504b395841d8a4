package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/medical-filemanager/internal/core/events"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Replay domain events, for example to reschedule background work for a file.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish an event for an existing file",
	Long:  `Publish an event for a stored file through the same handlers the server uses. Only file.uploaded is supported, which reschedules text extraction or thumbnail rendering.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishFileEvent(args[0])
	},
}

var eventFileID int64

func publishFileEvent(eventType string) error {
	if eventType != events.EventTypeFileUploaded {
		return fmt.Errorf("unsupported event type %q", eventType)
	}
	if eventFileID <= 0 {
		return fmt.Errorf("--file is required")
	}

	ctx := context.Background()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	registerEventHandlers(deps)

	file, err := deps.Services.Files.Get(ctx, eventFileID)
	if err != nil {
		return err
	}

	event := events.NewFileUploadedEvent(file.ID, file.CategoryID, string(file.FileType), file.MimeType,
		file.Name, file.StoragePath, file.Size, file.UploadedBy)

	deps.Logger.Info("publishing event", "event_type", eventType, "event_id", event.EventID(), "file_id", file.ID)

	// synchronous so the enqueue finishes before the process exits
	if err := deps.Bus.PublishSync(ctx, event); err != nil {
		return err
	}

	deps.Logger.Info("event published")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventFileID, "file", 0, "id of the file the event is about")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
