package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/medical-filemanager/internal/department"
	departmentDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/department"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var dept departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) GetByCode(ctx context.Context, code string) (*departmentDatamodel.Department, error) {
	var dept departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) CreateIfMissing(ctx context.Context, dept *departmentDatamodel.Department) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(dept)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
