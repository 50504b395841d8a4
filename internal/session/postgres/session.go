package postgres

import (
	"context"
	"errors"
	"time"

	sessionDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/frahmantamala/medical-filemanager/internal/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db}
}

// closeOpen never writes a logout_time earlier than the session's login_time.
func closeOpen(tx *gorm.DB, userID int64, at time.Time) (int64, error) {
	result := tx.Model(&sessionDatamodel.UserSession{}).
		Where("user_id = ? AND logout_time IS NULL", userID).
		Update("logout_time", gorm.Expr("CASE WHEN login_time > ? THEN login_time ELSE ? END", at, at))
	return result.RowsAffected, result.Error
}

func (r *SessionRepository) Open(ctx context.Context, row *sessionDatamodel.UserSession) (int64, error) {
	var closed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userDatamodel.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", row.UserID).
			First(&owner).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return session.ErrUserNotFound
			}
			return err
		}

		n, err := closeOpen(tx, row.UserID, row.LoginTime)
		if err != nil {
			return err
		}
		closed = n

		return tx.Create(row).Error
	})
	return closed, err
}

func (r *SessionRepository) CloseOpen(ctx context.Context, userID int64, at time.Time) (int64, error) {
	return closeOpen(r.db.WithContext(ctx), userID, at)
}

func (r *SessionRepository) Active(ctx context.Context, userID int64) (*sessionDatamodel.UserSession, error) {
	var row sessionDatamodel.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND logout_time IS NULL", userID).
		Order("login_time DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *SessionRepository) List(ctx context.Context, userID int64, limit int) ([]*sessionDatamodel.UserSession, error) {
	var rows []*sessionDatamodel.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("login_time DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *SessionRepository) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.UserSession{}).
		Where("login_time >= ?", since).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}
