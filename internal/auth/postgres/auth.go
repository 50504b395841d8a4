package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/auth"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
	}
}

type accountRow struct {
	ID             int64
	Username       string
	Name           string
	Email          string
	PasswordHash   string
	DepartmentID   *int64
	DepartmentCode *string
	IsStaff        bool
	IsApproved     bool
	IsActive       bool
}

func (r accountRow) toAccount() *auth.Account {
	a := &auth.Account{
		ID:           r.ID,
		Username:     r.Username,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DepartmentID: r.DepartmentID,
		IsStaff:      r.IsStaff,
		IsApproved:   r.IsApproved,
		IsActive:     r.IsActive,
	}
	if r.DepartmentCode != nil {
		a.DepartmentCode = *r.DepartmentCode
	}
	return a
}

func (r *Repository) accounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users AS u").
		Select(`u.id, u.username, u.name, u.email, u.password_hash, u.department_id,
			d.code AS department_code, u.is_staff, u.is_approved, u.is_active`).
		Joins("LEFT JOIN departments AS d ON d.id = u.department_id")
}

func (r *Repository) first(q *gorm.DB) (*auth.Account, error) {
	var rows []accountRow
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toAccount(), nil
}

func (r *Repository) FindByLogin(ctx context.Context, login string) (*auth.Account, error) {
	return r.first(r.accounts(ctx).
		Where("u.username = ? OR LOWER(u.email) = LOWER(?)", login, login).
		Order("u.id"))
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	return r.first(r.accounts(ctx).Where("u.id = ?", id))
}

func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
