package category_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	categoryPostgres "github.com/frahmantamala/medical-filemanager/internal/category/postgres"
	folderDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/folder"
	"github.com/frahmantamala/medical-filemanager/internal/core/testdb"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	departmentPostgres "github.com/frahmantamala/medical-filemanager/internal/department/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	folderPostgres "github.com/frahmantamala/medical-filemanager/internal/folder/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// MockProvisioner records calls and can be told to fail.
type MockProvisioner struct {
	calls      []int64
	shouldFail bool
	failError  error
}

func (m *MockProvisioner) Provision(ctx context.Context, categoryID int64) (folder.Result, error) {
	m.calls = append(m.calls, categoryID)
	if m.shouldFail {
		return folder.Result{}, m.failError
	}
	return folder.Result{Years: 1, Months: 12, Days: 365}, nil
}

type testEnv struct {
	db          *gorm.DB
	service     *category.Service
	departments *department.Service
	slogger     *slog.Logger
}

func newTestEnv(provisioner category.ProvisionerAPI) *testEnv {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	db := testdb.MustOpen()
	departments := department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
	_, err := departments.EnsureDefaults(context.Background())
	Expect(err).NotTo(HaveOccurred())

	if provisioner == nil {
		provisioner = folder.NewProvisioner(folderPostgres.NewFolderRepository(db), 2024, 2025, slogger)
	}
	service := category.NewService(categoryPostgres.NewCategoryRepository(db), departments, provisioner, nil, slogger)
	return &testEnv{db: db, service: service, departments: departments, slogger: slogger}
}

func (e *testEnv) departmentID(code string) *int64 {
	dept, err := e.departments.GetByCode(context.Background(), code)
	Expect(err).NotTo(HaveOccurred())
	return &dept.ID
}

var _ = Describe("Category Service", func() {
	var (
		env *testEnv
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newTestEnv(nil)
	})

	Describe("Create", func() {
		It("persists the category and provisions its folder tree", func() {
			cat, res, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
			Expect(err).NotTo(HaveOccurred())
			Expect(cat.ID).To(BeNumerically(">", 0))
			Expect(cat.DepartmentCode).To(Equal("LAB"))
			Expect(res.Years).To(Equal(2))
			Expect(res.Days).To(Equal(366 + 365))

			var days int64
			Expect(env.db.Model(&folderDatamodel.DateFolder{}).Count(&days).Error).To(Succeed())
			Expect(days).To(BeEquivalentTo(731))
		})

		It("rejects a duplicate name in the same department", func() {
			_, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
			Expect(errors.Is(err, category.ErrDuplicateCategory)).To(BeTrue())
		})

		It("allows the same name in another department", func() {
			_, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Reports", Department: "LAB"})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = env.service.Create(ctx, category.CreateCategoryRequest{Name: "Reports", Department: "RADIOLOGY"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown department", func() {
			_, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "CARDIO"})
			Expect(errors.Is(err, department.ErrInvalidDepartment)).To(BeTrue())
		})

		It("rejects an empty or overlong name", func() {
			_, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "", Department: "LAB"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))

			long := make([]byte, 101)
			for i := range long {
				long[i] = 'a'
			}
			_, _, err = env.service.Create(ctx, category.CreateCategoryRequest{Name: string(long), Department: "LAB"})
			appErr, ok = internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("keeps the category and reports an internal error when provisioning fails", func() {
			mock := &MockProvisioner{shouldFail: true, failError: errors.New("disk full")}
			env = newTestEnv(mock)

			cat, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(cat).NotTo(BeNil())

			stored, err := env.service.Get(ctx, cat.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Name).To(Equal("Labs"))
		})
	})

	Describe("Update", func() {
		It("never provisions", func() {
			mock := &MockProvisioner{}
			env = newTestEnv(mock)

			cat, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Labs", Department: "LAB"})
			Expect(err).NotTo(HaveOccurred())
			Expect(mock.calls).To(HaveLen(1))

			updated, err := env.service.Update(ctx, cat.ID, category.UpdateCategoryRequest{Name: "Lab Results", Department: "RADIOLOGY"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Lab Results"))
			Expect(updated.DepartmentCode).To(Equal("RADIOLOGY"))
			Expect(mock.calls).To(HaveLen(1))
		})

		It("returns not found for a missing category", func() {
			_, err := env.service.Update(ctx, 4242, category.UpdateCategoryRequest{Name: "X", Department: "LAB"})
			Expect(errors.Is(err, category.ErrCategoryNotFound)).To(BeTrue())
		})
	})

	Describe("visibility", func() {
		var lab, radiology *category.Category

		BeforeEach(func() {
			var err error
			lab, _, err = env.service.Create(ctx, category.CreateCategoryRequest{Name: "Reports", Department: "LAB"})
			Expect(err).NotTo(HaveOccurred())
			radiology, _, err = env.service.Create(ctx, category.CreateCategoryRequest{Name: "Reports", Department: "RADIOLOGY"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists everything for staff and only the own department otherwise", func() {
			staff := &internal.User{ID: 1, IsStaff: true}
			all, err := env.service.List(ctx, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			labUser := &internal.User{ID: 2, DepartmentID: env.departmentID("LAB")}
			own, err := env.service.List(ctx, labUser)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))
			Expect(own[0].ID).To(Equal(lab.ID))

			orphan := &internal.User{ID: 3}
			none, err := env.service.List(ctx, orphan)
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})

		It("resolves a shared name to the viewer's department", func() {
			radUser := &internal.User{ID: 2, DepartmentID: env.departmentID("RADIOLOGY")}
			cat, err := env.service.ResolveForUpload(ctx, radUser, "Reports")
			Expect(err).NotTo(HaveOccurred())
			Expect(cat.ID).To(Equal(radiology.ID))
		})

		It("rejects an unknown category name", func() {
			radUser := &internal.User{ID: 2, DepartmentID: env.departmentID("RADIOLOGY")}
			_, err := env.service.ResolveForUpload(ctx, radUser, "Nope")
			Expect(errors.Is(err, category.ErrInvalidCategory)).To(BeTrue())
		})

		It("forbids a category of another department", func() {
			_, _, err := env.service.Create(ctx, category.CreateCategoryRequest{Name: "Scans", Department: "RADIOLOGY"})
			Expect(err).NotTo(HaveOccurred())

			labUser := &internal.User{ID: 2, DepartmentID: env.departmentID("LAB")}
			_, err = env.service.ResolveForUpload(ctx, labUser, "Scans")
			Expect(errors.Is(err, category.ErrCategoryForbidden)).To(BeTrue())
		})

		It("requires staff without a department to use an unambiguous name", func() {
			staff := &internal.User{ID: 1, IsStaff: true}
			_, err := env.service.ResolveForUpload(ctx, staff, "Reports")
			Expect(errors.Is(err, category.ErrAmbiguousCategory)).To(BeTrue())
		})

		It("forbids reading another department's category", func() {
			labUser := &internal.User{ID: 2, DepartmentID: env.departmentID("LAB")}
			_, err := env.service.GetVisible(ctx, labUser, radiology.ID)
			Expect(errors.Is(err, category.ErrCategoryForbidden)).To(BeTrue())
		})
	})
})
