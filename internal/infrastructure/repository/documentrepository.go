package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"cdrcgi/internal/domain/docs"
	"cdrcgi/internal/infrastructure/persistence/models"
)

// DocumentRepository reads stored documents, versions, blobs, and
// doctype metadata.
type DocumentRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *gorm.DB, logger *slog.Logger) docs.Repository {
	return &DocumentRepository{db: db, logger: logger}
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*docs.Document, error) {
	var model models.DocumentModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to read document", "id", id, "error", err)
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doctype models.DocTypeModel
	if err := r.db.WithContext(ctx).First(&doctype, model.DocType).Error; err != nil {
		r.logger.Error("failed to read doctype", "id", model.DocType, "error", err)
		return nil, fmt.Errorf("failed to read doctype: %w", err)
	}

	return &docs.Document{
		ID:      model.ID,
		Doctype: doctype.Name,
		Title:   model.Title,
		XML:     model.XML,
	}, nil
}

func (r *DocumentRepository) GetVersionXML(ctx context.Context, id uint, num int) (string, error) {
	var model models.DocVersionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND num = ?", id, num).
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		r.logger.Error("failed to read document version", "id", id, "num", num, "error", err)
		return "", fmt.Errorf("failed to read document version: %w", err)
	}
	return model.XML, nil
}

func (r *DocumentRepository) GetBlob(ctx context.Context, id uint) ([]byte, error) {
	var model models.DocBlobModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to read document blob", "id", id, "error", err)
		return nil, fmt.Errorf("failed to read document blob: %w", err)
	}
	return model.Data, nil
}

func (r *DocumentRepository) ListByDoctype(ctx context.Context, doctype string) ([]docs.DocTitle, error) {
	var rows []struct {
		ID    uint
		Title string
	}
	err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Select("document.id, document.title").
		Joins("JOIN doc_type ON doc_type.id = document.doc_type").
		Where("doc_type.name = ? AND document.active_status = ?", doctype, "A").
		Order("document.title").
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("failed to list documents", "doctype", doctype, "error", err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	out := make([]docs.DocTitle, len(rows))
	for i, row := range rows {
		out[i] = docs.DocTitle{ID: row.ID, Title: row.Title}
	}
	return out, nil
}

func (r *DocumentRepository) Doctypes(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.DocTypeModel{}).
		Where("active = ?", "Y").
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		r.logger.Error("failed to list doctypes", "error", err)
		return nil, fmt.Errorf("failed to list doctypes: %w", err)
	}
	return names, nil
}
