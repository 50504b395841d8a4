package user

import (
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// AllCategories is what staff see in allowed_categories.
	AllCategories = "all"
)

var (
	ErrUserNotFound  = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrUsernameTaken = internal.NewValidationFieldError("username", "Username already exists", internal.ErrCodeUsernameTaken)
	ErrEmailTaken    = internal.NewValidationFieldError("email", "Email already exists", internal.ErrCodeEmailTaken)
)

type User struct {
	ID             int64
	Username       string
	Name           string
	Email          string
	PasswordHash   string
	DepartmentID   *int64
	DepartmentCode string
	DepartmentName string
	IsStaff        bool
	IsApproved     bool
	IsActive       bool
	LastLoginAt    *time.Time
	CreatedAt      time.Time
}

func (u *User) Role() string {
	if u.IsStaff {
		return RoleAdmin
	}
	return RoleUser
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role(),
		Department:     u.DepartmentName,
		DepartmentCode: u.DepartmentCode,
		IsStaff:        u.IsStaff,
		IsApproved:     u.IsApproved,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		DepartmentID: u.DepartmentID,
		IsStaff:      u.IsStaff,
		IsApproved:   u.IsApproved,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DepartmentID: u.DepartmentID,
		IsStaff:      u.IsStaff,
		IsApproved:   u.IsApproved,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
