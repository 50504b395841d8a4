package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal/auth"
	"github.com/frahmantamala/medical-filemanager/internal/browse"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/frahmantamala/medical-filemanager/internal/transport/middleware"
	"github.com/frahmantamala/medical-filemanager/internal/transport/swagger"
	"github.com/frahmantamala/medical-filemanager/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by RegisterAllRoutes. A nil
// handler leaves its routes unmounted.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Category   *category.Handler
	Department *department.Handler
	File       *medicalfile.Handler
	Browse     *browse.Handler
	Media      *storage.MediaHandler
}

type Options struct {
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	// OpenAPI is served at /openapi.yml and, when set, validates API requests.
	OpenAPI []byte
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, opts Options, logger *slog.Logger) error {
	healthHandler := NewHealthHandler(db)

	validate := func(next http.Handler) http.Handler { return next }
	if len(opts.OpenAPI) > 0 {
		doc, err := middleware.LoadOpenAPI(opts.OpenAPI)
		if err != nil {
			return err
		}
		validate, err = middleware.OpenAPIValidator(doc)
		if err != nil {
			return err
		}
	}

	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.LoggingMiddleware(logger))

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.Handler())
	}

	if len(opts.OpenAPI) > 0 {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(opts.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Signed links carry their own token, so media sits outside the auth group.
	if h.Media != nil {
		router.Get("/media/*", h.Media.Serve)
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(v1 chi.Router) {
			v1.Get("/health", healthHandler.healthCheckHandler)
			v1.Get("/ping", healthHandler.pingHandler)

			if h.Auth == nil {
				return
			}

			v1.Group(func(pub chi.Router) {
				pub.Use(validate)
				pub.Post("/auth/login", h.Auth.Login)
				pub.Post("/auth/refresh", h.Auth.RefreshToken)
			})

			v1.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				pr.Use(validate)

				pr.Post("/auth/logout", h.Auth.Logout)

				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
					pr.Group(func(sr chi.Router) {
						sr.Use(middleware.RequireStaff)
						sr.Get("/users", h.User.ListUsers)
						sr.Post("/users", h.User.CreateUser)
						sr.Patch("/users/{id}/approve", h.User.ApproveUser)
						sr.Get("/users/{id}/sessions", h.User.GetUserSessions)
					})
				}

				if h.Category != nil {
					pr.Get("/categories", h.Category.GetCategories)
					pr.Get("/categories/{id}", h.Category.GetCategory)
					pr.Group(func(sr chi.Router) {
						sr.Use(middleware.RequireStaff)
						sr.Post("/categories", h.Category.CreateCategory)
						sr.Put("/categories/{id}", h.Category.UpdateCategory)
					})
				}

				if h.Department != nil {
					pr.Get("/departments", h.Department.GetDepartments)
				}
			})
		})

		if h.Auth == nil {
			return
		}

		// Routes kept at the paths existing clients call.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(validate)

			if h.File != nil {
				pr.Post("/upload", h.File.Upload)
				pr.Get("/browse/files", h.File.ListFiles)
				pr.Get("/browse/files/{id}", h.File.GetFile)
				pr.Get("/browse/files/{id}/download", h.File.DownloadFile)
				pr.Delete("/browse/files/{id}", h.File.DeleteFile)
			}

			if h.Browse != nil {
				pr.Get("/browse/structure", h.Browse.GetStructure)
				pr.Get("/dashboard/stats", h.Browse.GetStats)
			}
		})
	})

	logger.Info("routes registered",
		"openapi_validation", len(opts.OpenAPI) > 0,
		"metrics", opts.MetricsEnabled)
	return nil
}
