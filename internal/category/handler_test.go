package category_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func withUser(req *http.Request, user *internal.User) *http.Request {
	return req.WithContext(internal.ContextWithUser(req.Context(), user))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("Category Handler", func() {
	var (
		env     *testEnv
		handler *category.Handler
		staff   *internal.User
	)

	BeforeEach(func() {
		env = newTestEnv(&MockProvisioner{})
		handler = category.NewHandler(transport.NewBaseHandler(env.slogger), env.service)
		staff = &internal.User{ID: 1, Username: "admin", IsStaff: true}
	})

	It("creates a category and returns 201", func() {
		body := strings.NewReader(`{"name":"Labs","department":"LAB"}`)
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/categories", body), staff)
		w := httptest.NewRecorder()

		handler.CreateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var response category.CreateCategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Category.Name).To(Equal("Labs"))
		Expect(response.Category.Department).To(Equal("LAB"))
		Expect(response.Provisioned.Days).To(Equal(365))
	})

	It("returns 409 on a duplicate", func() {
		for _, expected := range []int{http.StatusCreated, http.StatusConflict} {
			body := strings.NewReader(`{"name":"Labs","department":"LAB"}`)
			req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/categories", body), staff)
			w := httptest.NewRecorder()
			handler.CreateCategory(w, req)
			Expect(w.Code).To(Equal(expected))
		}
	})

	It("returns 400 on malformed JSON", func() {
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader("{")), staff)
		w := httptest.NewRecorder()

		handler.CreateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var response struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Error.Code).To(Equal(string(internal.ErrCodeInvalidRequestBody)))
	})

	It("returns 401 when listing without a user", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
		w := httptest.NewRecorder()

		handler.GetCategories(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists visible categories", func() {
		_, _, err := env.service.Create(context.Background(), category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
		Expect(err).NotTo(HaveOccurred())
		_, _, err = env.service.Create(context.Background(), category.CreateCategoryRequest{Name: "Scans", Department: "RADIOLOGY"})
		Expect(err).NotTo(HaveOccurred())

		labUser := &internal.User{ID: 2, DepartmentID: env.departmentID("LAB")}
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil), labUser)
		w := httptest.NewRecorder()

		handler.GetCategories(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(HaveLen(1))
		Expect(response.Categories[0].Name).To(Equal("Labs"))
	})

	It("updates a category by id", func() {
		cat, _, err := env.service.Create(context.Background(), category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
		Expect(err).NotTo(HaveOccurred())

		body := strings.NewReader(`{"name":"Lab Results","department":"LAB"}`)
		req := withUser(httptest.NewRequest(http.MethodPut, "/api/v1/categories/x", body), staff)
		req = withURLParam(req, "id", strconv.FormatInt(cat.ID, 10))
		w := httptest.NewRecorder()

		handler.UpdateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var response category.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Name).To(Equal("Lab Results"))
	})

	It("rejects a non-numeric id", func() {
		req := withUser(httptest.NewRequest(http.MethodPut, "/api/v1/categories/abc", strings.NewReader(`{}`)), staff)
		req = withURLParam(req, "id", "abc")
		w := httptest.NewRecorder()

		handler.UpdateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
