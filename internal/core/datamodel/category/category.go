package category

import "time"

type Category struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;size:100;not null;uniqueIndex:uq_categories_department_name,priority:2"`
	DepartmentID int64     `gorm:"column:department_id;not null;uniqueIndex:uq_categories_department_name,priority:1"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string { return "categories" }
