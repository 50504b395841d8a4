package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal/core/common/dbutil"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/frahmantamala/medical-filemanager/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

type userRow struct {
	userDatamodel.User
	DepartmentCode *string
	DepartmentName *string
}

func (r userRow) toDomain() *user.User {
	u := user.FromDataModel(&r.User)
	if r.DepartmentCode != nil {
		u.DepartmentCode = *r.DepartmentCode
	}
	if r.DepartmentName != nil {
		u.DepartmentName = *r.DepartmentName
	}
	return u
}

func (r *UserRepository) withDepartment(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users").
		Select("users.*, departments.code AS department_code, departments.name AS department_name").
		Joins("LEFT JOIN departments ON departments.id = users.department_id")
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var rows []userRow
	if err := r.withDepartment(ctx).Where("users.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	if err := r.withDepartment(ctx).Order("users.username").Scan(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("username = ?", username).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if err == nil {
		return nil
	}
	if !dbutil.IsUniqueViolation(err) {
		return err
	}

	// lost a race with a concurrent insert; name the column that collided
	constraint := strings.ToLower(dbutil.ConstraintName(err) + " " + err.Error())
	if strings.Contains(constraint, "email") {
		return user.ErrEmailTaken.WithCause(err)
	}
	return user.ErrUsernameTaken.WithCause(err)
}

func (r *UserRepository) Approve(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("is_approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
