package user

import "time"

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Username     string     `gorm:"column:username;uniqueIndex;size:150;not null"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	Name         string     `gorm:"column:name"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	DepartmentID *int64     `gorm:"column:department_id"`
	IsStaff      bool       `gorm:"column:is_staff;not null"`
	IsApproved   bool       `gorm:"column:is_approved;not null"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
