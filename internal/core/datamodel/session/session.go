package session

import "time"

type UserSession struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;index"`
	LoginTime  time.Time  `gorm:"column:login_time;not null"`
	LogoutTime *time.Time `gorm:"column:logout_time"`
}

func (UserSession) TableName() string { return "user_sessions" }
