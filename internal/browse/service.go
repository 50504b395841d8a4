package browse

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
)

const (
	recentWindow = 7 * 24 * time.Hour
	recentLimit  = 10
)

// Scope restricts a read-model query. A nil DepartmentID means every
// department.
type Scope struct {
	DepartmentID *int64
}

type RepositoryAPI interface {
	FolderCounts(ctx context.Context, scope Scope) ([]FolderCount, error)
	ProvisionedCategories(ctx context.Context, scope Scope) ([]string, error)
	Totals(ctx context.Context, scope Scope) (Totals, error)
	CategoryStats(ctx context.Context, scope Scope) ([]CategoryStat, error)
	RecentUploads(ctx context.Context, scope Scope, since time.Time, limit int) ([]RecentUpload, error)
}

type SessionCounter interface {
	CountUsersSince(ctx context.Context, since time.Time) (int64, error)
}

type Service struct {
	repo     RepositoryAPI
	sessions SessionCounter
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, sessions SessionCounter, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// scope reports what viewer may see; ok is false when that is nothing.
func scope(viewer *internal.User) (Scope, bool) {
	if viewer.IsStaff {
		return Scope{}, true
	}
	if viewer.DepartmentID == nil {
		return Scope{}, false
	}
	dept := *viewer.DepartmentID
	return Scope{DepartmentID: &dept}, true
}

// Structure returns the pruned Category/Year/Month/Day tree of the folders
// that hold files visible to viewer. Visible categories that have folders
// but no files are listed with no years.
func (s *Service) Structure(ctx context.Context, viewer *internal.User) (Structure, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}
	sc, ok := scope(viewer)
	if !ok {
		return Structure{}, nil
	}

	counts, err := s.repo.FolderCounts(ctx, sc)
	if err != nil {
		s.logger.Error("failed to load folder counts", "error", err)
		return nil, err
	}
	categories, err := s.repo.ProvisionedCategories(ctx, sc)
	if err != nil {
		s.logger.Error("failed to load categories", "error", err)
		return nil, err
	}
	return BuildStructure(categories, counts), nil
}

func (s *Service) Stats(ctx context.Context, viewer *internal.User) (*StatsResponse, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}

	now := s.now().UTC()
	resp := &StatsResponse{
		StorageUsed:   medicalfile.FormatSize(0),
		CategoryStats: []CategoryStat{},
		RecentUploads: []RecentUploadResponse{},
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if s.sessions != nil {
		users, err := s.sessions.CountUsersSince(ctx, today)
		if err != nil {
			s.logger.Error("failed to count today's users", "error", err)
			return nil, err
		}
		resp.TodayUsers = users
	}

	sc, ok := scope(viewer)
	if !ok {
		return resp, nil
	}

	totals, err := s.repo.Totals(ctx, sc)
	if err != nil {
		s.logger.Error("failed to load totals", "error", err)
		return nil, err
	}
	resp.TotalFiles = totals.TotalFiles
	resp.CategoryCount = totals.CategoryCount
	resp.StorageUsedBytes = totals.StorageUsed
	resp.StorageUsed = medicalfile.FormatSize(totals.StorageUsed)

	stats, err := s.repo.CategoryStats(ctx, sc)
	if err != nil {
		s.logger.Error("failed to load category stats", "error", err)
		return nil, err
	}
	resp.CategoryStats = append(resp.CategoryStats, stats...)

	recent, err := s.repo.RecentUploads(ctx, sc, now.Add(-recentWindow), recentLimit)
	if err != nil {
		s.logger.Error("failed to load recent uploads", "error", err)
		return nil, err
	}
	for _, r := range recent {
		resp.RecentUploads = append(resp.RecentUploads, RecentUploadResponse{
			ID:         r.ID,
			Name:       r.Name,
			Category:   r.Category,
			UploadedBy: r.UploadedBy(),
			UploadedAt: r.UploadedAt.Format("Jan 02, 2006 15:04"),
			Size:       medicalfile.FormatSize(r.Size),
		})
	}

	return resp, nil
}
