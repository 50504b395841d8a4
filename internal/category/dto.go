package category

import (
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/folder"
)

type CreateCategoryRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Department string `json:"department" validate:"required"`
}

type UpdateCategoryRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Department string `json:"department" validate:"required"`
}

type CategoryResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DepartmentID   int64     `json:"department_id"`
	Department     string    `json:"department"`
	DepartmentName string    `json:"department_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type CreateCategoryResponse struct {
	Category    CategoryResponse `json:"category"`
	Provisioned folder.Result    `json:"provisioned"`
}
