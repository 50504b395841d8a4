package folder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/core/metrics"
)

var ErrDateFolderNotFound = internal.NewNotFoundError("Date folder not found", internal.ErrCodeFolderNotFound)

type RepositoryAPI interface {
	// ProvisionYear creates whatever is missing of one year's subtree in a
	// single transaction and reports what it inserted.
	ProvisionYear(ctx context.Context, categoryID int64, year int) (Result, error)
	FindDateFolder(ctx context.Context, categoryID int64, year, month, day int) (*DateFolder, error)
	GetOrCreateYear(ctx context.Context, categoryID int64, year int) (int64, error)
	GetOrCreateMonth(ctx context.Context, yearFolderID int64, month int) (int64, error)
	GetOrCreateDate(ctx context.Context, monthFolderID int64, day int, fullDate time.Time) (int64, error)
	Chain(ctx context.Context, dateFolderID int64) (*DateFolder, error)
}

type Provisioner struct {
	repo      RepositoryAPI
	startYear int
	endYear   int
	logger    *slog.Logger
}

func NewProvisioner(repo RepositoryAPI, startYear, endYear int, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		repo:      repo,
		startYear: startYear,
		endYear:   endYear,
		logger:    logger,
	}
}

func (p *Provisioner) Range() (int, int) {
	return p.startYear, p.endYear
}

// Provision builds the full Year/Month/Date tree of a category for the
// configured year range. It only inserts what is missing, so it is safe to
// rerun after a partial failure and concurrently with another provisioner.
func (p *Provisioner) Provision(ctx context.Context, categoryID int64) (Result, error) {
	var total Result
	start := time.Now()

	for year := p.startYear; year <= p.endYear; year++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		res, err := p.repo.ProvisionYear(ctx, categoryID, year)
		if err != nil {
			p.logger.Error("failed to provision year",
				"category_id", categoryID,
				"year", year,
				"error", err,
			)
			return total, fmt.Errorf("provision category %d year %d: %w", categoryID, year, err)
		}
		total = total.Add(res)
	}

	metrics.ProvisionedFoldersTotal.WithLabelValues("year").Add(float64(total.Years))
	metrics.ProvisionedFoldersTotal.WithLabelValues("month").Add(float64(total.Months))
	metrics.ProvisionedFoldersTotal.WithLabelValues("date").Add(float64(total.Days))

	p.logger.Info("category folders provisioned",
		"category_id", categoryID,
		"years", total.Years,
		"months", total.Months,
		"days", total.Days,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total, nil
}

type Resolver struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewResolver(repo RepositoryAPI, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger,
	}
}

// Resolve returns the DateFolder for the given day of a category, creating any
// missing level of the chain.
func (r *Resolver) Resolve(ctx context.Context, categoryID int64, year, month, day int) (*DateFolder, error) {
	if err := ValidateDate(year, month, day); err != nil {
		return nil, err
	}

	existing, err := r.repo.FindDateFolder(ctx, categoryID, year, month, day)
	if err != nil {
		return nil, fmt.Errorf("find date folder: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	yearID, err := r.repo.GetOrCreateYear(ctx, categoryID, year)
	if err != nil {
		return nil, fmt.Errorf("year folder: %w", err)
	}
	monthID, err := r.repo.GetOrCreateMonth(ctx, yearID, month)
	if err != nil {
		return nil, fmt.Errorf("month folder: %w", err)
	}
	fullDate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	dateID, err := r.repo.GetOrCreateDate(ctx, monthID, day, fullDate)
	if err != nil {
		return nil, fmt.Errorf("date folder: %w", err)
	}

	r.logger.Debug("date folder created on demand",
		"category_id", categoryID,
		"date", fullDate.Format("2006-01-02"),
	)

	return &DateFolder{
		ID:            dateID,
		MonthFolderID: monthID,
		CategoryID:    categoryID,
		Year:          year,
		Month:         month,
		Day:           day,
		FullDate:      fullDate,
	}, nil
}

// Chain loads a DateFolder with its category, year, month and day.
func (r *Resolver) Chain(ctx context.Context, dateFolderID int64) (*DateFolder, error) {
	chain, err := r.repo.Chain(ctx, dateFolderID)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, ErrDateFolderNotFound
	}
	return chain, nil
}

// IsNotFound reports whether err is a missing DateFolder.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDateFolderNotFound)
}
