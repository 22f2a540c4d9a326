package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	"github.com/frahmantamala/dashboard-access/internal/session"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *sessionDatamodel.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	var row sessionDatamodel.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &row, nil
}

// Revoke stamps revoked_at once; revoking an already revoked, missing or foreign session is a no-op.
func (r *SessionRepository) Revoke(ctx context.Context, id, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.Session{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", id, userID).
		Update("revoked_at", at).Error
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionDatamodel.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at)
	if res.Error != nil {
		return 0, fmt.Errorf("revoke sessions of user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
