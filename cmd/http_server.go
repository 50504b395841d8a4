package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/medical-filemanager/api"
	"github.com/frahmantamala/medical-filemanager/internal/auth"
	"github.com/frahmantamala/medical-filemanager/internal/browse"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	"github.com/frahmantamala/medical-filemanager/internal/transport/rest"
	"github.com/frahmantamala/medical-filemanager/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	registerEventHandlers(deps)

	router := chi.NewRouter()
	if err := setupRoutes(router, deps); err != nil {
		deps.Logger.Error("failed to register routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server",
		"address", addr,
		"storage_backend", deps.Blob.Backend(),
		"queue_enabled", deps.Queue != nil)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(router *chi.Mux, deps *Dependencies) error {
	base := transport.NewBaseHandler(deps.Logger)
	svc := deps.Services

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(base, svc.Auth),
		User:       user.NewHandler(base, svc.Users),
		Category:   category.NewHandler(base, svc.Categories),
		Department: department.NewHandler(base, svc.Departments),
		File:       medicalfile.NewHandler(base, svc.Files),
		Browse:     browse.NewHandler(base, svc.Browse),
	}
	// S3 presigns its own links; the other backends are served from /media.
	if deps.Blob.Backend() != storage.BackendS3 {
		handlers.Media = storage.NewMediaHandler(base, deps.Blob, deps.Signer)
	}

	obs := deps.Config.Observability
	return rest.RegisterAllRoutes(router, deps.DB.DB, handlers, rest.Options{
		AllowedOrigins: deps.Config.Server.Origins(),
		MetricsEnabled: obs.Metrics.Enabled,
		MetricsPath:    obs.Metrics.Path,
		OpenAPI:        api.OpenAPI,
	}, deps.Logger)
}
