package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/dbutil"
	categoryDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

type categoryRow struct {
	ID             int64
	Name           string
	DepartmentID   int64
	DepartmentCode string
	DepartmentName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c categoryRow) toDomain() *category.Category {
	return &category.Category{
		ID:             c.ID,
		Name:           c.Name,
		DepartmentID:   c.DepartmentID,
		DepartmentCode: c.DepartmentCode,
		DepartmentName: c.DepartmentName,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *CategoryRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.id, c.name, c.department_id, d.code AS department_code, d.name AS department_name, c.created_at, c.updated_at").
		Joins("JOIN departments AS d ON d.id = c.department_id")
}

func scanCategories(q *gorm.DB) ([]*category.Category, error) {
	var rows []categoryRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	categories := make([]*category.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.toDomain())
	}
	return categories, nil
}

func (r *CategoryRepository) List(ctx context.Context, departmentID *int64) ([]*category.Category, error) {
	q := r.base(ctx)
	if departmentID != nil {
		q = q.Where("c.department_id = ?", *departmentID)
	}
	return scanCategories(q.Order("c.name ASC, c.id ASC"))
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	categories, err := scanCategories(r.base(ctx).Where("c.id = ?", id).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return categories[0], nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) ([]*category.Category, error) {
	return scanCategories(r.base(ctx).Where("c.name = ?", name).Order("c.id ASC"))
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.Category) error {
	if err := r.db.WithContext(ctx).Create(cat).Error; err != nil {
		if dbutil.IsUniqueViolation(err) {
			return category.ErrDuplicateCategory.WithCause(err)
		}
		return err
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.Category) error {
	err := r.db.WithContext(ctx).
		Model(&categoryDatamodel.Category{}).
		Where("id = ?", cat.ID).
		Updates(map[string]interface{}{
			"name":          cat.Name,
			"department_id": cat.DepartmentID,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		if dbutil.IsUniqueViolation(err) {
			return category.ErrDuplicateCategory.WithCause(err)
		}
		return err
	}
	return r.db.WithContext(ctx).First(cat, cat.ID).Error
}
