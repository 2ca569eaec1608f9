// Package docs models the stored XML artifacts the endpoints read. All
// access is read-only; authorship lives in the upstream repository.
package docs

import "context"

// Document is one stored XML artifact.
type Document struct {
	ID      uint
	Doctype string
	Title   string
	XML     string
}

// DocTitle is the (id, title) pair search results are built from.
type DocTitle struct {
	ID    uint
	Title string
}

// Repository reads documents, blobs, and doctype metadata.
type Repository interface {
	// GetByID returns the current working copy, or nil when unknown.
	GetByID(ctx context.Context, id uint) (*Document, error)
	// GetVersionXML returns the XML of one numbered version.
	GetVersionXML(ctx context.Context, id uint, num int) (string, error)
	// GetBlob returns a document's binary payload.
	GetBlob(ctx context.Context, id uint) ([]byte, error)
	// ListByDoctype returns (id, title) for all active documents of a
	// doctype, ordered by title.
	ListByDoctype(ctx context.Context, doctype string) ([]DocTitle, error)
	// Doctypes returns the active doctype names.
	Doctypes(ctx context.Context) ([]string, error)
}
