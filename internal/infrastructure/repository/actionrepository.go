package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"cdrcgi/internal/infrastructure/persistence/models"
)

// ActionRepository loads the authoritative set of named permissions.
// The set is the whitelist: any action name outside it is rejected
// before the authorization oracle is consulted.
type ActionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewActionRepository(db *gorm.DB, logger *slog.Logger) *ActionRepository {
	return &ActionRepository{db: db, logger: logger}
}

// Names returns all action names.
func (r *ActionRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.ActionModel{}).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		r.logger.Error("failed to load actions", "error", err)
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	return names, nil
}

// DoctypeSpecific returns the action names whose permission checks are
// scoped by document type.
func (r *ActionRepository) DoctypeSpecific(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.ActionModel{}).
		Where("doctype_specific = ?", "Y").
		Pluck("name", &names).Error
	if err != nil {
		r.logger.Error("failed to load doctype-specific actions", "error", err)
		return nil, fmt.Errorf("failed to load doctype-specific actions: %w", err)
	}
	return names, nil
}
