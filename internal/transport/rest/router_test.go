package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/medical-filemanager/api"
	"github.com/frahmantamala/medical-filemanager/internal/auth"
	authPostgres "github.com/frahmantamala/medical-filemanager/internal/auth/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	categoryPostgres "github.com/frahmantamala/medical-filemanager/internal/category/postgres"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/frahmantamala/medical-filemanager/internal/core/testdb"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	departmentPostgres "github.com/frahmantamala/medical-filemanager/internal/department/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	"github.com/frahmantamala/medical-filemanager/internal/session"
	sessionPostgres "github.com/frahmantamala/medical-filemanager/internal/session/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	"github.com/frahmantamala/medical-filemanager/internal/transport/rest"
	"github.com/frahmantamala/medical-filemanager/internal/user"
	userPostgres "github.com/frahmantamala/medical-filemanager/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const password = "correct-horse-battery"

type noopProvisioner struct{}

func (noopProvisioner) Provision(ctx context.Context, categoryID int64) (folder.Result, error) {
	return folder.Result{}, nil
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Router", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
		labID  int64
	)

	seedLogin := func(username string, staff bool) {
		row := testdb.SeedUser(db, username, &labID, staff)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Model(&userDatamodel.User{}).Where("id = ?", row.ID).Update("password_hash", string(hash)).Error).To(Succeed())
	}

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	login := func(username string) string {
		rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var tokens auth.AuthTokens
		Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(Succeed())
		return tokens.AccessToken
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	BeforeEach(func() {
		ctx := context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db = testdb.MustOpen()

		departments := department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
		_, err := departments.EnsureDefaults(ctx)
		Expect(err).NotTo(HaveOccurred())
		lab, err := departments.GetByCode(ctx, "LAB")
		Expect(err).NotTo(HaveOccurred())
		labID = lab.ID

		sessions := session.NewService(sessionPostgres.NewSessionRepository(db), slogger)
		categories := category.NewService(categoryPostgres.NewCategoryRepository(db), departments, noopProvisioner{}, nil, slogger)
		tokens := auth.NewJWTTokenGenerator(
			"access-secret-for-router-tests-0123456789",
			"refresh-secret-for-router-tests-0123456789",
			time.Minute, time.Hour)
		authService := auth.NewService(authPostgres.NewRepository(db), tokens, sessions, bcrypt.MinCost, slogger)
		userService := user.NewService(userPostgres.NewUserRepository(db), departments, categories, sessions, authService, slogger)

		base := transport.NewBaseHandler(slogger)
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		err = rest.RegisterAllRoutes(router, sqlDB, rest.Handlers{
			Auth:       auth.NewHandler(base, authService),
			User:       user.NewHandler(base, userService),
			Category:   category.NewHandler(base, categories),
			Department: department.NewHandler(base, departments),
		}, rest.Options{
			AllowedOrigins: []string{"https://records.hospital.test"},
			MetricsEnabled: true,
			OpenAPI:        api.OpenAPI,
		}, slogger)
		Expect(err).NotTo(HaveOccurred())

		seedLogin("nina", false)
		seedLogin("root", true)
	})

	It("answers health and ping", func() {
		Expect(do(http.MethodGet, "/api/v1/ping", "", nil).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodGet, "/api/v1/health", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"healthy"`))
	})

	It("serves the OpenAPI document and metrics", func() {
		rec := do(http.MethodGet, "/openapi.yml", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("/api/upload"))

		Expect(do(http.MethodGet, "/metrics", "", nil).Code).To(Equal(http.StatusOK))
	})

	It("sets a trace id on every response", func() {
		rec := do(http.MethodGet, "/api/v1/ping", "", nil)
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("requires a token for protected routes", func() {
		rec := do(http.MethodGet, "/api/v1/users/me", "", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(rec)).To(Equal("AUTHENTICATION_REQUIRED"))
	})

	It("logs in and returns the caller's profile", func() {
		token := login("nina")

		rec := do(http.MethodGet, "/api/v1/users/me", token, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body user.ProfileResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.UserProfile.Username).To(Equal("nina"))
		Expect(body.UserProfile.Role).To(Equal(user.RoleUser))
	})

	It("keeps admin routes for staff", func() {
		rec := do(http.MethodGet, "/api/v1/users", login("nina"), nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(rec)).To(Equal("STAFF_REQUIRED"))

		rec = do(http.MethodGet, "/api/v1/users", login("root"), nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("lists departments for any authenticated user", func() {
		rec := do(http.MethodGet, "/api/v1/departments", login("nina"), nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("RADIOLOGY"))
	})

	Describe("schema validation", func() {
		It("rejects a body field of the wrong type", func() {
			rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{"username": 42, "password": password})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("VALIDATION_FAILED"))
			Expect(rec.Body.String()).NotTo(ContainSubstring(password))
		})

		It("rejects a non-numeric path id", func() {
			rec := do(http.MethodPatch, "/api/v1/users/abc/approve", login("root"), nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("VALIDATION_FAILED"))
		})

		It("authenticates before validating", func() {
			rec := do(http.MethodPatch, "/api/v1/users/abc/approve", "", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	It("answers CORS preflight for configured origins", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
		req.Header.Set("Origin", "https://records.hospital.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://records.hospital.test"))
	})
})
