package folder

import "time"

type YearFolder struct {
	ID         int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"column:category_id;not null;uniqueIndex:uq_year_folders_category_year,priority:1"`
	Year       int   `gorm:"column:year;not null;uniqueIndex:uq_year_folders_category_year,priority:2"`
}

func (YearFolder) TableName() string { return "year_folders" }

type MonthFolder struct {
	ID           int64 `gorm:"primaryKey"`
	YearFolderID int64 `gorm:"column:year_folder_id;not null;uniqueIndex:uq_month_folders_year_month,priority:1"`
	Month        int   `gorm:"column:month;not null;uniqueIndex:uq_month_folders_year_month,priority:2"`
}

func (MonthFolder) TableName() string { return "month_folders" }

type DateFolder struct {
	ID            int64     `gorm:"primaryKey"`
	MonthFolderID int64     `gorm:"column:month_folder_id;not null;uniqueIndex:uq_date_folders_month_day,priority:1"`
	Day           int       `gorm:"column:day;not null;uniqueIndex:uq_date_folders_month_day,priority:2"`
	FullDate      time.Time `gorm:"column:full_date;type:date;not null"`
}

func (DateFolder) TableName() string { return "date_folders" }
