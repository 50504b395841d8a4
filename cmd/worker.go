package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/medical-filemanager/internal/queue"
	"github.com/spf13/cobra"
)

var workerConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Run the asynq worker that extracts PDF text and renders image thumbnails for uploaded files.`,
	Run: func(cmd *cobra.Command, args []string) {
		startWorker()
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "number of concurrent tasks (defaults to queue.concurrency)")
}

func startWorker() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	cfg := deps.Config.Queue
	if !cfg.Enabled {
		deps.Logger.Error("queue is disabled; set queue.enabled to run the worker")
		return
	}

	concurrency := cfg.Concurrency
	if workerConcurrency > 0 {
		concurrency = workerConcurrency
	}

	processor := queue.NewProcessor(deps.Services.Files, deps.Blob, deps.Logger)
	server := queue.NewServer(queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), concurrency, deps.Logger)

	deps.Logger.Info("starting worker",
		"redis_addr", cfg.RedisAddr,
		"concurrency", concurrency,
		"storage_backend", deps.Blob.Backend())

	if err := server.Start(processor.Handler()); err != nil {
		deps.Logger.Error("failed to start worker", "error", err)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	deps.Logger.Info("shutting down worker", "signal", sig)
	server.Shutdown()
	deps.Logger.Info("worker stopped")
}
