package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	sessions       SessionAPI
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, sessions SessionAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		sessions:       sessions,
		bcryptCost:     bcryptCost,
		logger:         logger,
		now:            time.Now,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate verifies credentials, opens a session and returns tokens. The
// password is checked before the account state so a caller without the
// password learns nothing about the account.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByLogin(ctx, dto.Login())
	if err != nil {
		s.logger.Error("failed to load account", "error", err)
		return nil, err
	}
	if account == nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login rejected: bad password", "user_id", account.ID)
		return nil, internal.ErrInvalidCredentials
	}

	if err := account.CheckLoginAllowed(); err != nil {
		s.logger.Warn("login rejected", "user_id", account.ID, "reason", err.Error())
		return nil, err
	}

	tokens, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.sessions.Open(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if err := s.repo.TouchLastLogin(ctx, account.ID, now.UTC()); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	s.logger.Info("user logged in", "user_id", account.ID, "username", account.Username)
	return &LoginResult{Tokens: tokens, User: account.Principal()}, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if err := (RefreshTokenDTO{RefreshToken: refreshToken}).Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	account, err := s.accountFor(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}
	if err := account.CheckLoginAllowed(); err != nil {
		return AuthTokens{}, err
	}

	return s.issue(account)
}

// Logout closes every open session of the user.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if _, err := s.sessions.Close(ctx, userID, s.now()); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	s.logger.Info("user logged out", "user_id", userID)
	return nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// Principal loads the request principal for a validated token. Accounts that
// were deactivated after the token was issued are refused.
func (s *Service) Principal(ctx context.Context, claims *Claims) (*internal.User, error) {
	account, err := s.accountFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, internal.ErrUserInactive
	}
	return account.Principal(), nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func (s *Service) accountFor(ctx context.Context, claims *Claims) (*Account, error) {
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || id <= 0 {
		return nil, internal.ErrInvalidToken
	}
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, internal.ErrInvalidToken
	}
	return account, nil
}

func (s *Service) issue(account *Account) (AuthTokens, error) {
	userID := strconv.FormatInt(account.ID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, account.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, account.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}

func (j *JWTTokenGenerator) AccessTTL() time.Duration {
	return j.AccessTokenTTL
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID, username string) (string, error) {
	return j.sign(userID, username, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID, username string) (string, error) {
	return j.sign(userID, username, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(userID, username string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken only accepts tokens signed with the access secret, so a
// refresh token can never authenticate a request.
func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, j.RefreshTokenSecret)
}

func parseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
