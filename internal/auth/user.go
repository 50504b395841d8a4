package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, userID int64) error
	ValidateAccessToken(tokenString string) (*Claims, error)
	Principal(ctx context.Context, claims *Claims) (*internal.User, error)
}

type RepositoryAPI interface {
	// FindByLogin matches the username exactly or the email case-insensitively.
	FindByLogin(ctx context.Context, login string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type SessionAPI interface {
	Open(ctx context.Context, userID int64, now time.Time) (*session.Session, error)
	Close(ctx context.Context, userID int64, now time.Time) (int64, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string, username string) (token string, err error)
	GenerateRefreshToken(userID string, username string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	AccessTTL() time.Duration
}

// Account is a user row joined with its department code, as seen by login.
type Account struct {
	ID             int64
	Username       string
	Name           string
	Email          string
	PasswordHash   string
	DepartmentID   *int64
	DepartmentCode string
	IsStaff        bool
	IsApproved     bool
	IsActive       bool
}

// CheckLoginAllowed rejects inactive accounts first, then unapproved ones.
func (a *Account) CheckLoginAllowed() error {
	if !a.IsActive {
		return internal.ErrUserInactive
	}
	if !a.IsApproved {
		return internal.ErrUserNotApproved
	}
	return nil
}

func (a *Account) Principal() *internal.User {
	return &internal.User{
		ID:             a.ID,
		Username:       a.Username,
		Name:           a.Name,
		Email:          a.Email,
		DepartmentID:   a.DepartmentID,
		DepartmentCode: a.DepartmentCode,
		IsStaff:        a.IsStaff,
	}
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type LoginResult struct {
	Tokens AuthTokens
	User   *internal.User
}

// Claims represents JWT token claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
