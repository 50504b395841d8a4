package department_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/medical-filemanager/internal/core/testdb"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	departmentPostgres "github.com/frahmantamala/medical-filemanager/internal/department/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Department", func() {
	DescribeTable("ParseCode",
		func(raw string, expected department.Code, valid bool) {
			code, err := department.ParseCode(raw)
			if !valid {
				Expect(errors.Is(err, department.ErrInvalidDepartment)).To(BeTrue())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(expected))
		},
		Entry("upper case", "LAB", department.CodeLab, true),
		Entry("lower case with spaces", " radiology ", department.CodeRadiology, true),
		Entry("unknown", "CARDIO", department.Code(""), false),
		Entry("empty", "", department.Code(""), false),
	)

	It("uses the display name when no name is given", func() {
		Expect(department.NewDepartment(department.CodeNeonatal, "").Name).To(Equal("Neonatal Care"))
		Expect(department.NewDepartment(department.CodeLab, "Central Lab").Name).To(Equal("Central Lab"))
	})

	Describe("Service", func() {
		var (
			db      *gorm.DB
			service *department.Service
			ctx     context.Context
			slogger *slog.Logger
		)

		BeforeEach(func() {
			ctx = context.Background()
			slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			db = testdb.MustOpen()
			service = department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
		})

		It("creates the default departments once", func() {
			created, err := service.EnsureDefaults(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(7))

			created, err = service.EnsureDefaults(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(0))

			all, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(7))
		})

		It("looks departments up by code", func() {
			_, err := service.EnsureDefaults(ctx)
			Expect(err).NotTo(HaveOccurred())

			dept, err := service.GetByCode(ctx, "lab")
			Expect(err).NotTo(HaveOccurred())
			Expect(dept.Code).To(Equal(department.CodeLab))
			Expect(dept.Name).To(Equal("Laboratory"))
		})

		It("reports a valid code without a row as not found", func() {
			_, err := service.GetByCode(ctx, "SURGERY")
			Expect(errors.Is(err, department.ErrDepartmentNotFound)).To(BeTrue())
		})

		It("serves the department list over HTTP", func() {
			_, err := service.EnsureDefaults(ctx)
			Expect(err).NotTo(HaveOccurred())

			handler := department.NewHandler(transport.NewBaseHandler(slogger), service)
			req := httptest.NewRequest(http.MethodGet, "/departments", nil)
			w := httptest.NewRecorder()

			handler.GetDepartments(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response department.DepartmentsResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Departments).To(HaveLen(7))
		})
	})
})
