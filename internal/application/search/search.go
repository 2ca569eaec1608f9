// Package search implements the advanced-search base: a declarative
// per-doctype field set is turned into a query over the XML index
// table, and matches are rendered through a named display filter.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"cdrcgi/internal/application/filters"
	domainSession "cdrcgi/internal/domain/session"
	"cdrcgi/internal/shared/errors"
	"cdrcgi/internal/shared/query"
)

// FieldKind distinguishes free-entry inputs from fixed choice lists.
type FieldKind int

const (
	FreeText FieldKind = iota
	Picklist
)

// Match selects how a free-text value is tested against the index.
type Match int

const (
	MatchExact Match = iota
	// MatchContains tests with LIKE, wrapping the value in wildcards.
	MatchContains
)

// Field is one named search input bound to one or more XPaths in the
// query-term index. A value matches if it is found under any of the
// paths.
type Field struct {
	Name  string
	Label string
	Kind  FieldKind
	Match Match
	Paths []string
}

// Definition declares everything a doctype's search form needs.
type Definition struct {
	Doctype string
	Fields  []Field
	// DisplayFilter names the transform used to render one match,
	// in "name:<N>" or "set:<N>" spelling.
	DisplayFilter string
}

// ResultRow is one matching document.
type ResultRow struct {
	ID    uint
	Title string
}

// ResultSet carries matches in display order. Truncated is set when
// the match count exceeded the configured cap.
type ResultSet struct {
	Rows      []ResultRow
	Truncated bool
}

// Service executes advanced searches. maxRows caps how many matches a
// single search may return to the browser.
type Service struct {
	db       *gorm.DB
	filters  *filters.Adapter
	maxRows  int
	collator *collate.Collator
}

func NewService(db *gorm.DB, filterAdapter *filters.Adapter, maxRows int) *Service {
	return &Service{
		db:      db,
		filters: filterAdapter,
		maxRows: maxRows,
		// Title order is case-insensitive; ties fall back to the
		// numeric id.
		collator: collate.New(language.English, collate.IgnoreCase),
	}
}

// Values fetches the current choice list for a picklist field from the
// index, sorted case-insensitively.
func (s *Service) Values(ctx context.Context, field Field) ([]string, error) {
	q := query.New("query_term", "value").
		Where(query.Cond("path", field.Paths, "IN")).
		Unique()

	rows, err := q.Execute(ctx, s.db)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, rows.Len())
	for row := rows.Fetchone(); row != nil; row = rows.Fetchone() {
		values = append(values, row.String(0))
	}
	s.collator.SortStrings(values)
	return values, nil
}

// Search runs a submission against the index. submitted maps field
// names to raw form values; empty values are skipped. Choice-list
// values are validated against the freshly fetched list before any
// SQL is composed.
func (s *Service) Search(ctx context.Context, def Definition, submitted map[string]string) (*ResultSet, error) {
	if err := s.validate(ctx, def, submitted); err != nil {
		return nil, err
	}

	q := query.New("document d", "d.id", "d.title").
		Join("doc_type dt", "dt.id = d.doc_type", query.Cond("dt.name", def.Doctype)).
		Unique()

	bound := 0
	for i, field := range def.Fields {
		value := strings.TrimSpace(submitted[field.Name])
		if value == "" {
			continue
		}
		alias := fmt.Sprintf("qt%d", i)
		q.Join(fmt.Sprintf("query_term %s", alias),
			fmt.Sprintf("%s.doc_id = d.id", alias),
			query.Cond(alias+".path", field.Paths, "IN"),
			s.valueCond(alias, field, value))
		bound++
	}
	if bound == 0 {
		return nil, errors.NewInputError("at least one search field is required")
	}

	rows, err := q.Execute(ctx, s.db)
	if err != nil {
		return nil, err
	}

	result := &ResultSet{Rows: make([]ResultRow, 0, rows.Len())}
	for row := rows.Fetchone(); row != nil; row = rows.Fetchone() {
		result.Rows = append(result.Rows, ResultRow{
			ID:    uint(row.Int(0)),
			Title: row.String(1),
		})
	}

	sort.SliceStable(result.Rows, func(i, j int) bool {
		if c := s.collator.CompareString(result.Rows[i].Title, result.Rows[j].Title); c != 0 {
			return c < 0
		}
		return result.Rows[i].ID < result.Rows[j].ID
	})

	if s.maxRows > 0 && len(result.Rows) > s.maxRows {
		result.Rows = result.Rows[:s.maxRows]
		result.Truncated = true
	}
	return result, nil
}

// Display renders one match through the definition's display filter.
func (s *Service) Display(ctx context.Context, session *domainSession.Session, def Definition, docID uint) (*filters.Result, error) {
	return s.filters.FilterDoc(ctx, session, []string{def.DisplayFilter}, docID, nil, nil)
}

func (s *Service) valueCond(alias string, field Field, value string) *query.Condition {
	column := alias + ".value"
	if field.Kind == FreeText && field.Match == MatchContains {
		return query.Cond(column, "%"+escapeLike(value)+"%", "LIKE")
	}
	return query.Cond(column, value)
}

// validate rejects choice-list values absent from the list the form
// would have offered. A mismatch means the form was tampered with.
func (s *Service) validate(ctx context.Context, def Definition, submitted map[string]string) error {
	for _, field := range def.Fields {
		if field.Kind != Picklist {
			continue
		}
		value := strings.TrimSpace(submitted[field.Name])
		if value == "" {
			continue
		}
		allowed, err := s.Values(ctx, field)
		if err != nil {
			return err
		}
		found := false
		for _, candidate := range allowed {
			if candidate == value {
				found = true
				break
			}
		}
		if !found {
			return errors.NewInputError("Tampering with form values")
		}
	}
	return nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(value)
}
