// Package query builds parametrized SQL for the report and search
// endpoints. Every user-supplied literal flows through a placeholder;
// the builder never interpolates values into the statement text.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"cdrcgi/internal/shared/errors"
)

var allowedOps = map[string]bool{
	"=": true, "<>": true, "<": true, ">": true, "<=": true, ">=": true,
	"LIKE": true, "IN": true, "BETWEEN": true,
}

// identifier or dotted column reference, optionally with a sort direction
var orderPattern = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)*( (ASC|DESC))?$`)

// Condition binds one column comparison through placeholders. For IN the
// value must be a slice and expands to one placeholder per element; for
// BETWEEN it must be a two-element slice.
type Condition struct {
	Column string
	Value  any
	Op     string
}

// Cond creates a condition; the operator defaults to "=".
func Cond(column string, value any, op ...string) *Condition {
	operator := "="
	if len(op) > 0 {
		operator = strings.ToUpper(strings.TrimSpace(op[0]))
	}
	return &Condition{Column: column, Value: value, Op: operator}
}

func (c *Condition) render(sb *strings.Builder, args *[]any) error {
	if !allowedOps[c.Op] {
		return errors.NewMisuseError("unsupported operator", c.Op)
	}
	switch c.Op {
	case "IN":
		values, ok := toSlice(c.Value)
		if !ok || len(values) == 0 {
			return errors.NewMisuseError("IN requires a non-empty sequence", c.Column)
		}
		sb.WriteString(c.Column)
		sb.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			*args = append(*args, v)
		}
		sb.WriteString(")")
	case "BETWEEN":
		values, ok := toSlice(c.Value)
		if !ok || len(values) != 2 {
			return errors.NewMisuseError("BETWEEN requires exactly two values", c.Column)
		}
		fmt.Fprintf(sb, "%s BETWEEN ? AND ?", c.Column)
		*args = append(*args, values[0], values[1])
	default:
		fmt.Fprintf(sb, "%s %s ?", c.Column, c.Op)
		*args = append(*args, c.Value)
	}
	return nil
}

func toSlice(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

type join struct {
	keyword string
	spec    string
	on      string
	conds   []*Condition
}

// Query accumulates one SELECT statement. The builder freezes after the
// first Execute; later mutation surfaces a misuse error.
type Query struct {
	table    string
	columns  []string
	joins    []join
	preds    []string
	conds    map[int]*Condition // position in preds -> bound condition
	order    []string
	limit    int
	distinct bool
	logSQL   bool
	executed bool
	err      error
}

// New starts a builder over a table (or "table alias") selecting the
// given columns. Columns are passed through verbatim and must not
// contain placeholders.
func New(table string, columns ...string) *Query {
	q := &Query{table: table, columns: columns, limit: -1, conds: map[int]*Condition{}}
	for _, col := range columns {
		if strings.Contains(col, "?") {
			q.err = errors.NewMisuseError("column must not contain placeholders", col)
		}
	}
	return q
}

func (q *Query) mutable() bool {
	if q.err != nil {
		return false
	}
	if q.executed {
		q.err = errors.NewMisuseError("query is frozen after execution")
		return false
	}
	return true
}

// Join adds an inner join; extra conditions are ANDed onto the ON clause
// with their values bound through placeholders.
func (q *Query) Join(spec, on string, conds ...*Condition) *Query {
	if q.mutable() {
		q.joins = append(q.joins, join{keyword: "JOIN", spec: spec, on: on, conds: conds})
	}
	return q
}

// Outer adds a left outer join.
func (q *Query) Outer(spec, on string, conds ...*Condition) *Query {
	if q.mutable() {
		q.joins = append(q.joins, join{keyword: "LEFT OUTER JOIN", spec: spec, on: on, conds: conds})
	}
	return q
}

// Where appends a predicate: either a parameter-free expression string or
// a *Condition whose value is bound through a placeholder.
func (q *Query) Where(pred any) *Query {
	if !q.mutable() {
		return q
	}
	switch p := pred.(type) {
	case string:
		if strings.Contains(p, "?") {
			q.err = errors.NewMisuseError("string predicates must be parameter-free", p)
			return q
		}
		q.preds = append(q.preds, p)
	case *Condition:
		q.conds[len(q.preds)] = p
		q.preds = append(q.preds, "")
	default:
		q.err = errors.NewMisuseError(fmt.Sprintf("unsupported predicate type %T", pred))
	}
	return q
}

// Unique requests SELECT DISTINCT; repeated calls are no-ops.
func (q *Query) Unique() *Query {
	if q.mutable() {
		q.distinct = true
	}
	return q
}

// Order appends sort columns; each accepts "col" or "col DESC".
func (q *Query) Order(cols ...string) *Query {
	if !q.mutable() {
		return q
	}
	for _, col := range cols {
		c := strings.TrimSpace(col)
		if !orderPattern.MatchString(c) {
			q.err = errors.NewMisuseError("invalid order specification", col)
			return q
		}
		q.order = append(q.order, c)
	}
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	if q.mutable() {
		q.limit = n
	}
	return q
}

// Log requests that the composed SQL (placeholders, not values) be
// written at debug level on the next execute.
func (q *Query) Log() *Query {
	if q.mutable() {
		q.logSQL = true
	}
	return q
}

// Err reports any builder misuse recorded so far.
func (q *Query) Err() error {
	return q.err
}

// SQL composes the statement and its bound arguments.
func (q *Query) SQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	if q.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(q.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(q.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.table)

	for _, j := range q.joins {
		fmt.Fprintf(&sb, " %s %s ON %s", j.keyword, j.spec, j.on)
		for _, c := range j.conds {
			sb.WriteString(" AND ")
			if err := c.render(&sb, &args); err != nil {
				return "", nil, err
			}
		}
	}

	for i, pred := range q.preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if c, ok := q.conds[i]; ok {
			if err := c.render(&sb, &args); err != nil {
				return "", nil, err
			}
		} else {
			sb.WriteString(pred)
		}
	}

	if len(q.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(q.order, ", "))
	}
	if q.limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}

	return sb.String(), args, nil
}

// Execute runs the statement on the supplied connection and freezes the
// builder. Query failures are wrapped with the SQL text for diagnostics.
func (q *Query) Execute(ctx context.Context, db *gorm.DB) (*Rows, error) {
	sql, args, err := q.SQL()
	if err != nil {
		return nil, err
	}
	q.executed = true

	if q.logSQL {
		slog.Debug("executing query", "sql", sql)
	}

	rows, err := db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, errors.NewInfrastructureError("query failed",
			fmt.Sprintf("%v; sql: %s", err, sql))
	}
	defer rows.Close()

	return collectRows(rows, sql)
}
