package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	"github.com/frahmantamala/medical-filemanager/internal/session"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// Create maps a unique violation onto ErrUsernameTaken or ErrEmailTaken.
	Create(ctx context.Context, row *userDatamodel.User) error
	Approve(ctx context.Context, id int64) error
}

type DepartmentLookup interface {
	GetByCode(ctx context.Context, code string) (*department.Department, error)
}

type CategoryLister interface {
	List(ctx context.Context, viewer *internal.User) ([]*category.Category, error)
}

type SessionLister interface {
	List(ctx context.Context, userID int64, limit int) ([]*session.Session, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentLookup
	categories  CategoryLister
	sessions    SessionLister
	hasher      PasswordHasher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentLookup, categories CategoryLister, sessions SessionLister, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		categories:  categories,
		sessions:    sessions,
		hasher:      hasher,
		logger:      logger,
	}
}

// Profile describes the viewer: staff get role admin and every category,
// everyone else the categories of their own department.
func (s *Service) Profile(ctx context.Context, viewer *internal.User) (*ProfileResponse, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}

	u, err := s.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	allowed := []string{AllCategories}
	if !u.IsStaff {
		cats, err := s.categories.List(ctx, viewer)
		if err != nil {
			return nil, err
		}
		allowed = make([]string, 0, len(cats))
		for _, c := range cats {
			allowed = append(allowed, c.Name)
		}
	}

	return &ProfileResponse{UserProfile: Profile{
		ID:                u.ID,
		Username:          u.Username,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role(),
		Department:        u.DepartmentName,
		DepartmentCode:    u.DepartmentCode,
		AllowedCategories: allowed,
	}}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// Create adds a user to a department. Username is checked before email so
// the caller always gets the same message for the same request.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if appErr := validation.Struct(req); appErr != nil {
		return nil, appErr
	}

	taken, err := s.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	dept, err := s.departments.GetByCode(ctx, req.Department)
	if err != nil {
		if errors.Is(err, department.ErrInvalidDepartment) || errors.Is(err, department.ErrDepartmentNotFound) {
			return nil, invalidDepartmentError()
		}
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		DepartmentID: &dept.ID,
		IsStaff:      req.IsStaff,
		IsApproved:   req.IsApproved,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "username", req.Username, "error", err)
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", row.ID,
		"department", dept.Code,
		"is_staff", row.IsStaff,
		"is_approved", row.IsApproved)

	u := FromDataModel(row)
	u.DepartmentCode = string(dept.Code)
	u.DepartmentName = dept.Name
	return u, nil
}

func (s *Service) Approve(ctx context.Context, id int64) (*User, error) {
	if err := s.repo.Approve(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("user approved", "user_id", id)
	return s.GetByID(ctx, id)
}

func (s *Service) Sessions(ctx context.Context, id int64, limit int) ([]*session.Session, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.sessions.List(ctx, id, limit)
}

func invalidDepartmentError() *internal.AppError {
	codes := make([]string, 0, len(department.AllCodes()))
	for _, c := range department.AllCodes() {
		codes = append(codes, string(c))
	}
	message := fmt.Sprintf("Invalid department code. Valid codes are: %s", strings.Join(codes, ", "))
	return internal.NewValidationFieldError("department", message, internal.ErrCodeInvalidDepartment)
}
