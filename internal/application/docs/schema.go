// Package docs holds the read-only document use cases behind the
// schema and image endpoints.
package docs

import (
	"context"

	domainDocs "cdrcgi/internal/domain/docs"
	"cdrcgi/internal/shared/errors"
)

// SchemaService lists schema documents and fetches individual schema
// XML for display.
type SchemaService struct {
	docs domainDocs.Repository
}

func NewSchemaService(docs domainDocs.Repository) *SchemaService {
	return &SchemaService{docs: docs}
}

// List returns all active Schema documents in title order.
func (s *SchemaService) List(ctx context.Context) ([]domainDocs.DocTitle, error) {
	return s.docs.ListByDoctype(ctx, "Schema")
}

// Get returns one schema document's XML.
func (s *SchemaService) Get(ctx context.Context, id uint) (*domainDocs.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewInputError("document not found")
	}
	return doc, nil
}
