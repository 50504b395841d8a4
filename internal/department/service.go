package department

import (
	"context"
	"log/slog"

	departmentDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/department"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	GetByCode(ctx context.Context, code string) (*departmentDatamodel.Department, error)
	// CreateIfMissing reports whether a row was inserted.
	CreateIfMissing(ctx context.Context, dept *departmentDatamodel.Department) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, err
	}

	departments := make([]*Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, FromDataModel(row))
	}
	return departments, nil
}

func (s *Service) GetByCode(ctx context.Context, raw string) (*Department, error) {
	code, err := ParseCode(raw)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetByCode(ctx, string(code))
	if err != nil {
		s.logger.Error("failed to get department", "code", code, "error", err)
		return nil, err
	}
	if row == nil {
		return nil, ErrDepartmentNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrDepartmentNotFound
	}
	return FromDataModel(row), nil
}

// EnsureDefaults creates every department of the closed code set that does not
// exist yet and returns how many were created.
func (s *Service) EnsureDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, code := range AllCodes() {
		ok, err := s.repo.CreateIfMissing(ctx, ToDataModel(NewDepartment(code, "")))
		if err != nil {
			s.logger.Error("failed to ensure department", "code", code, "error", err)
			return created, err
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.logger.Info("created default departments", "count", created)
	}
	return created, nil
}
