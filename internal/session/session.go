package session

import (
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	sessionDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/session"
)

var (
	ErrInvalidLogoutTime = internal.NewValidationFieldError("logout_time", "logout time cannot be before login time", internal.ErrCodeValidationFailed)
	ErrUserNotFound      = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
)

type Session struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
}

func (s *Session) IsOpen() bool {
	return s.LogoutTime == nil
}

// End closes the session at the given time.
func (s *Session) End(at time.Time) error {
	if at.Before(s.LoginTime) {
		return ErrInvalidLogoutTime
	}
	s.LogoutTime = &at
	return nil
}

func (s *Session) Duration() time.Duration {
	if s.LogoutTime == nil {
		return 0
	}
	return s.LogoutTime.Sub(s.LoginTime)
}

func ToDataModel(s *Session) *sessionDatamodel.UserSession {
	return &sessionDatamodel.UserSession{
		ID:         s.ID,
		UserID:     s.UserID,
		LoginTime:  s.LoginTime,
		LogoutTime: s.LogoutTime,
	}
}

func FromDataModel(s *sessionDatamodel.UserSession) *Session {
	return &Session{
		ID:         s.ID,
		UserID:     s.UserID,
		LoginTime:  s.LoginTime,
		LogoutTime: s.LogoutTime,
	}
}

type SessionResponse struct {
	ID              int64      `json:"id"`
	LoginTime       time.Time  `json:"login_time"`
	LogoutTime      *time.Time `json:"logout_time,omitempty"`
	Open            bool       `json:"open"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func (s *Session) ToResponse() SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		LoginTime:       s.LoginTime,
		LogoutTime:      s.LogoutTime,
		Open:            s.IsOpen(),
		DurationSeconds: int64(s.Duration().Seconds()),
	}
}
