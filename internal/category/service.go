package category

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/validation"
	categoryDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/category"
	"github.com/frahmantamala/medical-filemanager/internal/core/events"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
)

type RepositoryAPI interface {
	// List returns every category, or only those of departmentID when set.
	List(ctx context.Context, departmentID *int64) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	FindByName(ctx context.Context, name string) ([]*Category, error)
	Create(ctx context.Context, category *categoryDatamodel.Category) error
	Update(ctx context.Context, category *categoryDatamodel.Category) error
}

type DepartmentLookup interface {
	GetByCode(ctx context.Context, code string) (*department.Department, error)
}

type ProvisionerAPI interface {
	Provision(ctx context.Context, categoryID int64) (folder.Result, error)
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentLookup
	provisioner ProvisionerAPI
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentLookup, provisioner ProvisionerAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		provisioner: provisioner,
		publisher:   publisher,
		logger:      logger,
	}
}

// List returns the categories viewer may see: all of them for staff, only the
// viewer's department otherwise, and none for a user without a department.
func (s *Service) List(ctx context.Context, viewer *internal.User) ([]*Category, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}

	var filter *int64
	if !viewer.IsStaff {
		if viewer.DepartmentID == nil {
			return []*Category{}, nil
		}
		filter = viewer.DepartmentID
	}

	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, err
	}
	return categories, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get category", "category_id", id, "error", err)
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}

// GetVisible is Get restricted to what viewer may see.
func (s *Service) GetVisible(ctx context.Context, viewer *internal.User, id int64) (*Category, error) {
	cat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cat.VisibleTo(viewer) {
		return nil, ErrCategoryForbidden
	}
	return cat, nil
}

// Create stores a category and provisions its folder tree before returning.
// A provisioning failure leaves the category in place; rerunning the
// provisioner completes it.
func (s *Service) Create(ctx context.Context, req CreateCategoryRequest) (*Category, folder.Result, error) {
	if appErr := validation.Struct(req); appErr != nil {
		return nil, folder.Result{}, appErr
	}
	if appErr := validation.ValidateCategoryName(req.Name); appErr != nil {
		return nil, folder.Result{}, appErr
	}

	dept, err := s.resolveDepartment(ctx, req.Department)
	if err != nil {
		return nil, folder.Result{}, err
	}

	cat := NewCategory(req.Name, dept.ID)
	row := ToDataModel(cat)
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateCategory) {
			return nil, folder.Result{}, err
		}
		s.logger.Error("failed to create category", "name", cat.Name, "error", err)
		return nil, folder.Result{}, err
	}

	created := FromDataModel(row)
	created.DepartmentCode = string(dept.Code)
	created.DepartmentName = dept.Name

	res, err := s.provisioner.Provision(ctx, created.ID)
	if err != nil {
		s.logger.Error("category created but provisioning failed",
			"category_id", created.ID,
			"error", err,
		)
		return created, res, internal.NewInternalError("failed to provision category folders", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.NewCategoryCreatedEvent(created.ID, created.Name, created.DepartmentID, res.Total()))
	}

	s.logger.Info("category created",
		"category_id", created.ID,
		"name", created.Name,
		"department", created.DepartmentCode,
	)
	return created, res, nil
}

// Update renames or moves a category. The folder tree is left as it is.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*Category, error) {
	if appErr := validation.Struct(req); appErr != nil {
		return nil, appErr
	}
	if appErr := validation.ValidateCategoryName(req.Name); appErr != nil {
		return nil, appErr
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dept, err := s.resolveDepartment(ctx, req.Department)
	if err != nil {
		return nil, err
	}

	existing.Name = NewCategory(req.Name, dept.ID).Name
	existing.DepartmentID = dept.ID
	row := ToDataModel(existing)
	if err := s.repo.Update(ctx, row); err != nil {
		if !errors.Is(err, ErrDuplicateCategory) {
			s.logger.Error("failed to update category", "category_id", id, "error", err)
		}
		return nil, err
	}

	updated := FromDataModel(row)
	updated.DepartmentCode = string(dept.Code)
	updated.DepartmentName = dept.Name
	return updated, nil
}

// ProvisionExisting reruns provisioning for a stored category.
func (s *Service) ProvisionExisting(ctx context.Context, id int64) (folder.Result, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return folder.Result{}, err
	}
	return s.provisioner.Provision(ctx, id)
}

// ResolveForUpload picks the category an upload targets by name. When several
// departments share the name, the viewer's own department wins.
func (s *Service) ResolveForUpload(ctx context.Context, viewer *internal.User, name string) (*Category, error) {
	candidates, err := s.repo.FindByName(ctx, NewCategory(name, 0).Name)
	if err != nil {
		s.logger.Error("failed to look up category", "name", name, "error", err)
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrInvalidCategory
	}

	if viewer.DepartmentID != nil {
		for _, c := range candidates {
			if c.DepartmentID == *viewer.DepartmentID {
				return c, nil
			}
		}
	}

	if !viewer.IsStaff {
		return nil, ErrCategoryForbidden
	}
	if len(candidates) > 1 {
		return nil, ErrAmbiguousCategory
	}
	return candidates[0], nil
}

func (s *Service) resolveDepartment(ctx context.Context, code string) (*department.Department, error) {
	dept, err := s.departments.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, department.ErrDepartmentNotFound) {
			return nil, department.ErrInvalidDepartment
		}
		return nil, err
	}
	return dept, nil
}
