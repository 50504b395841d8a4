package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated principal attached to a request.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
	IsStaff        bool   `json:"is_staff"`
}

func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// CanSeeDepartment reports whether the user may read data owned by departmentID.
func (u *User) CanSeeDepartment(departmentID int64) bool {
	if u == nil {
		return false
	}
	if u.IsStaff {
		return true
	}
	return u.DepartmentID != nil && *u.DepartmentID == departmentID
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok && user != nil
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
