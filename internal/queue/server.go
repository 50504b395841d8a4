package queue

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer builds the asynq worker server. Task errors are logged here so the
// handlers only need to return them.
func NewServer(opt asynq.RedisClientOpt, concurrency int, logger *slog.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 4
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warn("task attempt failed", "task", task.Type(), "error", err)
		}),
	})
}
