package user

import (
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/session"
)

type CreateUserRequest struct {
	Username   string `json:"username" validate:"required,max=150"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name" validate:"max=150"`
	Department string `json:"department" validate:"required"`
	IsStaff    bool   `json:"is_staff"`
	IsApproved bool   `json:"is_approved"`
}

type Profile struct {
	ID                int64    `json:"id"`
	Username          string   `json:"username"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	Department        string   `json:"department"`
	DepartmentCode    string   `json:"department_code"`
	AllowedCategories []string `json:"allowed_categories"`
}

type ProfileResponse struct {
	UserProfile Profile `json:"userProfile"`
}

type UserResponse struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Department     string     `json:"department"`
	DepartmentCode string     `json:"department_code"`
	IsStaff        bool       `json:"is_staff"`
	IsApproved     bool       `json:"is_approved"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

type CreateUserResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type SessionsResponse struct {
	Sessions []session.SessionResponse `json:"sessions"`
}
