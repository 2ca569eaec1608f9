package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cdrcgi/internal/infrastructure/persistence/models"
)

// FilterRequestRepository records filter-pipeline invocations for
// after-the-fact diagnostics. Writes are best-effort; a failed audit
// write never fails the request.
type FilterRequestRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewFilterRequestRepository(db *gorm.DB, logger *slog.Logger) *FilterRequestRepository {
	return &FilterRequestRepository{db: db, logger: logger}
}

// Record writes one audit row. Parameters are preserved verbatim as
// JSON.
func (r *FilterRequestRepository) Record(ctx context.Context, docID uint, filters []string, parms map[string]string, userName string) {
	parmJSON, err := json.Marshal(parms)
	if err != nil {
		r.logger.Warn("cannot encode filter parameters", "doc_id", docID, "error", err)
		parmJSON = []byte("{}")
	}

	model := models.FilterRequestModel{
		DocID:      docID,
		Filters:    strings.Join(filters, ";"),
		Parms:      datatypes.JSON(parmJSON),
		Requested:  time.Now(),
		SessionUsr: userName,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.logger.Warn("cannot record filter request", "doc_id", docID, "error", err)
	}
}
