// Package filters invokes the repository server's transform pipelines
// against stored XML documents.
package filters

import (
	"context"
	"log/slog"

	domainSession "cdrcgi/internal/domain/session"
	"cdrcgi/internal/infrastructure/upstream"
)

// Auditor records filter invocations; writes are best-effort.
type Auditor interface {
	Record(ctx context.Context, docID uint, filters []string, parms map[string]string, userName string)
}

// Result is the transformed document plus any server warnings, kept
// separate from the body.
type Result struct {
	Text     string
	Warnings []string
}

// Adapter resolves filter spellings and drives the upstream pipeline.
type Adapter struct {
	client  upstream.Client
	auditor Auditor
	logger  *slog.Logger
}

func NewAdapter(client upstream.Client, auditor Auditor, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, auditor: auditor, logger: logger}
}

// FilterDoc transforms a stored document through an ordered pipeline.
// Each entry spells either a single filter ("name:<N>") or a filter set
// ("set:<N>"); entries are applied in declaration order. A nil version
// filters the current working copy.
func (a *Adapter) FilterDoc(ctx context.Context, session *domainSession.Session,
	filterSpecs []string, docID uint, parms map[string]string, version *int) (*Result, error) {

	specs := make([]upstream.FilterSpec, 0, len(filterSpecs))
	for _, raw := range filterSpecs {
		spec, err := upstream.ParseFilterSpec(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	result, err := a.client.FilterDoc(ctx, session.Token, specs, int(docID), parms, version)
	if err != nil {
		return nil, err
	}

	if a.auditor != nil {
		a.auditor.Record(ctx, docID, filterSpecs, parms, session.UserName)
	}
	if len(result.Warnings) > 0 {
		a.logger.Warn("filter pipeline produced warnings",
			"doc_id", docID, "warnings", len(result.Warnings))
	}
	return &Result{Text: result.Text, Warnings: result.Warnings}, nil
}
