package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"cdrcgi/internal/domain/session"
	"cdrcgi/internal/infrastructure/persistence/models"
)

// SessionRepository reads the repository's session table. Sessions are
// created upstream at login; this side only observes and ends them.
type SessionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSessionRepository(db *gorm.DB, logger *slog.Logger) session.Repository {
	return &SessionRepository{db: db, logger: logger}
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).
		Where("name = ?", token).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to read session", "error", err)
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var usr models.UsrModel
	if err := r.db.WithContext(ctx).First(&usr, model.Usr).Error; err != nil {
		r.logger.Error("failed to read session user", "usr", model.Usr, "error", err)
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}

	return &session.Session{
		Token:        model.Name,
		UserID:       model.Usr,
		UserName:     usr.Name,
		Initiated:    model.Initiated,
		LastActivity: model.LastAct,
		Ended:        model.Ended,
	}, nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("name = ? AND ended IS NULL", token).
		Update("last_act", time.Now()).Error
	if err != nil {
		r.logger.Error("failed to touch session", "error", err)
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) End(ctx context.Context, token string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("name = ? AND ended IS NULL", token).
		Update("ended", &now).Error
	if err != nil {
		r.logger.Error("failed to end session", "error", err)
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}
