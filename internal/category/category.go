package category

import (
	"strings"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	categoryDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/category"
)

var (
	ErrCategoryNotFound  = internal.NewNotFoundError("Category not found", internal.ErrCodeCategoryNotFound)
	ErrInvalidCategory   = internal.NewValidationFieldError("category", "Invalid category", internal.ErrCodeInvalidCategory)
	ErrAmbiguousCategory = internal.NewValidationFieldError("category", "Category name exists in several departments", internal.ErrCodeAmbiguousCategory)
	ErrDuplicateCategory = internal.NewConflictError("Category already exists in this department", internal.ErrCodeDuplicateCategory)
	ErrCategoryForbidden = internal.NewForbiddenError("You do not have access to this category", internal.ErrCodePermissionDenied)
)

// Category is a named bucket of files owned by one department.
type Category struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DepartmentID   int64     `json:"department_id"`
	DepartmentCode string    `json:"department_code"`
	DepartmentName string    `json:"department_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewCategory(name string, departmentID int64) *Category {
	return &Category{
		Name:         strings.TrimSpace(name),
		DepartmentID: departmentID,
	}
}

func (c *Category) VisibleTo(viewer *internal.User) bool {
	return viewer.CanSeeDepartment(c.DepartmentID)
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		DepartmentID:   c.DepartmentID,
		Department:     c.DepartmentCode,
		DepartmentName: c.DepartmentName,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToDataModel(c *Category) *categoryDatamodel.Category {
	return &categoryDatamodel.Category{
		ID:           c.ID,
		Name:         c.Name,
		DepartmentID: c.DepartmentID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.Category) *Category {
	return &Category{
		ID:           c.ID,
		Name:         c.Name,
		DepartmentID: c.DepartmentID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
