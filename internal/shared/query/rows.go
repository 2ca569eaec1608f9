package query

import (
	"database/sql"
	"fmt"

	"cdrcgi/internal/shared/errors"
)

// Row exposes one result row with both positional and name-based column
// access. Text columns come back as string regardless of driver.
type Row struct {
	cols map[string]int
	vals []any
}

// Get returns the value at a column position.
func (r Row) Get(i int) any {
	if i < 0 || i >= len(r.vals) {
		return nil
	}
	return r.vals[i]
}

// ByName returns the value of a named column.
func (r Row) ByName(name string) any {
	i, ok := r.cols[name]
	if !ok {
		return nil
	}
	return r.vals[i]
}

// String renders the value at a column position as a string.
func (r Row) String(i int) string {
	return asString(r.Get(i))
}

// StringByName renders a named column as a string.
func (r Row) StringByName(name string) string {
	return asString(r.ByName(name))
}

// Int renders the value at a column position as an int.
func (r Row) Int(i int) int {
	return asInt(r.Get(i))
}

func asString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case []byte:
		return string(vv)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func asInt(v any) int {
	switch vv := v.(type) {
	case int64:
		return int(vv)
	case int:
		return vv
	case []byte:
		var n int
		fmt.Sscanf(string(vv), "%d", &n)
		return n
	case string:
		var n int
		fmt.Sscanf(vv, "%d", &n)
		return n
	default:
		return 0
	}
}

// Rows is the materialized result set of one execute.
type Rows struct {
	cols map[string]int
	rows [][]any
	next int
}

func collectRows(rows *sql.Rows, sqlText string) (*Rows, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, errors.NewInfrastructureError("reading result columns",
			fmt.Sprintf("%v; sql: %s", err, sqlText))
	}

	cols := make(map[string]int, len(names))
	for i, name := range names {
		cols[name] = i
	}

	result := &Rows{cols: cols}
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.NewInfrastructureError("scanning result row",
				fmt.Sprintf("%v; sql: %s", err, sqlText))
		}
		result.rows = append(result.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInfrastructureError("iterating result rows",
			fmt.Sprintf("%v; sql: %s", err, sqlText))
	}
	return result, nil
}

// Fetchone returns the next row, or nil when exhausted.
func (r *Rows) Fetchone() *Row {
	if r.next >= len(r.rows) {
		return nil
	}
	row := &Row{cols: r.cols, vals: r.rows[r.next]}
	r.next++
	return row
}

// Fetchall returns all remaining rows.
func (r *Rows) Fetchall() []Row {
	out := make([]Row, 0, len(r.rows)-r.next)
	for ; r.next < len(r.rows); r.next++ {
		out = append(out, Row{cols: r.cols, vals: r.rows[r.next]})
	}
	return out
}

// Len reports the total number of rows fetched.
func (r *Rows) Len() int {
	return len(r.rows)
}
