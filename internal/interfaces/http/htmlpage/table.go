package htmlpage

import (
	"fmt"
	"strings"
)

// Table is one tabular report: column titles, row tuples, and an
// optional caption.
type Table struct {
	Caption string
	Columns []string
	Rows    [][]string
}

func (t *Table) render() string {
	var sb strings.Builder
	sb.WriteString("<table>\n")
	if t.Caption != "" {
		fmt.Fprintf(&sb, "<caption>%s</caption>\n", esc(t.Caption))
	}
	if len(t.Columns) > 0 {
		sb.WriteString("<thead><tr>")
		for _, col := range t.Columns {
			fmt.Fprintf(&sb, "<th>%s</th>", esc(col))
		}
		sb.WriteString("</tr></thead>\n")
	}
	sb.WriteString("<tbody>\n")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&sb, "<td>%s</td>", esc(cell))
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>")
	return sb.String()
}
