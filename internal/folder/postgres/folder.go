package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/core/common/dbutil"
	folderDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/folder"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) folder.RepositoryAPI {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) ProvisionYear(ctx context.Context, categoryID int64, year int) (folder.Result, error) {
	var res folder.Result

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		yearRow := &folderDatamodel.YearFolder{CategoryID: categoryID, Year: year}
		created := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}, {Name: "year"}},
			DoNothing: true,
		}).Create(yearRow)
		if created.Error != nil {
			return fmt.Errorf("insert year folder: %w", created.Error)
		}
		res.Years = int(created.RowsAffected)

		var yf folderDatamodel.YearFolder
		if err := tx.Where("category_id = ? AND year = ?", categoryID, year).First(&yf).Error; err != nil {
			return fmt.Errorf("load year folder: %w", err)
		}

		months := make([]folderDatamodel.MonthFolder, 0, 12)
		for m := 1; m <= 12; m++ {
			months = append(months, folderDatamodel.MonthFolder{YearFolderID: yf.ID, Month: m})
		}
		created = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year_folder_id"}, {Name: "month"}},
			DoNothing: true,
		}).Create(&months)
		if created.Error != nil {
			return fmt.Errorf("insert month folders: %w", created.Error)
		}
		res.Months = int(created.RowsAffected)

		// ids assigned by a DO NOTHING insert are unreliable, read them back
		var stored []folderDatamodel.MonthFolder
		if err := tx.Where("year_folder_id = ?", yf.ID).Order("month ASC").Find(&stored).Error; err != nil {
			return fmt.Errorf("load month folders: %w", err)
		}

		for _, mf := range stored {
			days := folder.DaysIn(year, mf.Month)
			rows := make([]folderDatamodel.DateFolder, 0, days)
			for d := 1; d <= days; d++ {
				rows = append(rows, folderDatamodel.DateFolder{
					MonthFolderID: mf.ID,
					Day:           d,
					FullDate:      time.Date(year, time.Month(mf.Month), d, 0, 0, 0, 0, time.UTC),
				})
			}
			created = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "month_folder_id"}, {Name: "day"}},
				DoNothing: true,
			}).Create(&rows)
			if created.Error != nil {
				return fmt.Errorf("insert date folders for month %d: %w", mf.Month, created.Error)
			}
			res.Days += int(created.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return folder.Result{}, err
	}
	return res, nil
}

type chainRow struct {
	ID            int64
	MonthFolderID int64
	CategoryID    int64
	Year          int
	Month         int
	Day           int
	FullDate      time.Time
}

func (c chainRow) toDomain() *folder.DateFolder {
	return &folder.DateFolder{
		ID:            c.ID,
		MonthFolderID: c.MonthFolderID,
		CategoryID:    c.CategoryID,
		Year:          c.Year,
		Month:         c.Month,
		Day:           c.Day,
		FullDate:      c.FullDate,
	}
}

func (r *FolderRepository) chainQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("date_folders AS d").
		Select("d.id, d.month_folder_id, y.category_id, y.year, m.month, d.day, d.full_date").
		Joins("JOIN month_folders AS m ON m.id = d.month_folder_id").
		Joins("JOIN year_folders AS y ON y.id = m.year_folder_id")
}

func (r *FolderRepository) FindDateFolder(ctx context.Context, categoryID int64, year, month, day int) (*folder.DateFolder, error) {
	var rows []chainRow
	err := r.chainQuery(ctx).
		Where("y.category_id = ? AND y.year = ? AND m.month = ? AND d.day = ?", categoryID, year, month, day).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (r *FolderRepository) Chain(ctx context.Context, dateFolderID int64) (*folder.DateFolder, error) {
	var rows []chainRow
	err := r.chainQuery(ctx).Where("d.id = ?", dateFolderID).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (r *FolderRepository) GetOrCreateYear(ctx context.Context, categoryID int64, year int) (int64, error) {
	row := folderDatamodel.YearFolder{CategoryID: categoryID, Year: year}
	err := getOrCreate(r.db.WithContext(ctx), &row, "category_id = ? AND year = ?", categoryID, year)
	return row.ID, err
}

func (r *FolderRepository) GetOrCreateMonth(ctx context.Context, yearFolderID int64, month int) (int64, error) {
	row := folderDatamodel.MonthFolder{YearFolderID: yearFolderID, Month: month}
	err := getOrCreate(r.db.WithContext(ctx), &row, "year_folder_id = ? AND month = ?", yearFolderID, month)
	return row.ID, err
}

func (r *FolderRepository) GetOrCreateDate(ctx context.Context, monthFolderID int64, day int, fullDate time.Time) (int64, error) {
	row := folderDatamodel.DateFolder{MonthFolderID: monthFolderID, Day: day, FullDate: fullDate}
	err := getOrCreate(r.db.WithContext(ctx), &row, "month_folder_id = ? AND day = ?", monthFolderID, day)
	return row.ID, err
}

// getOrCreate loads the row matching where, inserting it when missing. Losing
// an insert race to another writer is resolved by reading the winner's row.
func getOrCreate(db *gorm.DB, row interface{}, where string, args ...interface{}) error {
	err := db.Where(where, args...).First(row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := db.Create(row).Error; err != nil {
		if !dbutil.IsUniqueViolation(err) {
			return err
		}
		return db.Where(where, args...).First(row).Error
	}
	return nil
}
