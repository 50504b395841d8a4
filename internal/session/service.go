package session

import (
	"context"
	"log/slog"
	"time"

	sessionDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/session"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type RepositoryAPI interface {
	// Open closes every open session of the user and inserts a new one, in a
	// single transaction holding a lock on the user row.
	Open(ctx context.Context, session *sessionDatamodel.UserSession) (closed int64, err error)
	CloseOpen(ctx context.Context, userID int64, at time.Time) (int64, error)
	Active(ctx context.Context, userID int64) (*sessionDatamodel.UserSession, error)
	List(ctx context.Context, userID int64, limit int) ([]*sessionDatamodel.UserSession, error)
	CountUsersSince(ctx context.Context, since time.Time) (int64, error)
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

// Open starts a session for userID, superseding any session left open.
func (s *Service) Open(ctx context.Context, userID int64, now time.Time) (*Session, error) {
	row := &sessionDatamodel.UserSession{UserID: userID, LoginTime: now.UTC()}
	closed, err := s.repo.Open(ctx, row)
	if err != nil {
		s.logger.Error("failed to open session", "user_id", userID, "error", err)
		return nil, err
	}
	if closed > 0 {
		s.logger.Info("closed stale sessions on login", "user_id", userID, "closed", closed)
	}
	return FromDataModel(row), nil
}

// Close ends every open session of userID and returns how many it closed.
func (s *Service) Close(ctx context.Context, userID int64, now time.Time) (int64, error) {
	closed, err := s.repo.CloseOpen(ctx, userID, now.UTC())
	if err != nil {
		s.logger.Error("failed to close sessions", "user_id", userID, "error", err)
		return 0, err
	}
	if closed == 0 {
		s.logger.Warn("logout without an open session", "user_id", userID)
	}
	return closed, nil
}

func (s *Service) Active(ctx context.Context, userID int64) (*Session, error) {
	row, err := s.repo.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to list sessions", "user_id", userID, "error", err)
		return nil, err
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, FromDataModel(row))
	}
	return sessions, nil
}

// CountUsersSince counts distinct users that logged in at or after since.
func (s *Service) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return s.repo.CountUsersSince(ctx, since.UTC())
}
