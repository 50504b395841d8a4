package auth

import (
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/validation"
)

// LoginDTO accepts either a username or an email next to the password.
type LoginDTO struct {
	Username string `json:"username" validate:"omitempty,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// Login returns the identifier to look the account up by, username first.
func (d LoginDTO) Login() string {
	if u := strings.TrimSpace(d.Username); u != "" {
		return u
	}
	return strings.TrimSpace(d.Email)
}

func (d LoginDTO) Validate() error {
	if appErr := validation.Struct(d); appErr != nil {
		return appErr
	}
	if d.Login() == "" {
		return internal.NewValidationFieldError("username", "username or email is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d RefreshTokenDTO) Validate() error {
	if appErr := validation.Struct(d); appErr != nil {
		return appErr
	}
	return nil
}

type LoginResponse struct {
	AuthTokens
	User *internal.User `json:"user"`
}
