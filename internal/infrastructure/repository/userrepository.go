package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"cdrcgi/internal/domain/user"
	"cdrcgi/internal/infrastructure/persistence/models"
)

// UserRepository reads principal profiles and group memberships from
// the usr, grp, and grp_usr tables.
type UserRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewUserRepository(db *gorm.DB, logger *slog.Logger) user.Repository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*user.User, error) {
	var model models.UsrModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to read user", "name", name, "error", err)
		return nil, fmt.Errorf("failed to read user: %w", err)
	}

	var groups []string
	err = r.db.WithContext(ctx).
		Model(&models.GrpModel{}).
		Joins("JOIN grp_usr ON grp_usr.grp = grp.id").
		Where("grp_usr.usr = ?", model.ID).
		Order("grp.name").
		Pluck("grp.name", &groups).Error
	if err != nil {
		r.logger.Error("failed to read user groups", "name", name, "error", err)
		return nil, fmt.Errorf("failed to read user groups: %w", err)
	}

	return &user.User{
		ID:       model.ID,
		Name:     model.Name,
		FullName: model.FullName,
		Email:    model.Email,
		Phone:    model.Phone,
		Groups:   groups,
	}, nil
}

func (r *UserRepository) PasswordHash(ctx context.Context, name string) (string, error) {
	var model models.UsrModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		r.logger.Error("failed to read user credential", "name", name, "error", err)
		return "", fmt.Errorf("failed to read user credential: %w", err)
	}
	if model.Password == nil {
		return "", nil
	}
	return *model.Password, nil
}
