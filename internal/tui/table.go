package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	datagrid "github.com/goliatone/go-datagrid"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 32
	markerWidth    = 3
)

// line is what one table row stands for: a group header or a data row.
type line struct {
	group string
	row   string
}

// layout turns a view into table columns and rows. Grouped views get a
// header line per group followed by its rows when expanded.
func layout(view datagrid.View, idField string, width int) ([]table.Column, []table.Row, []line) {
	columns := make([]table.Column, 0, len(view.Columns)+1)
	columns = append(columns, table.Column{Title: "", Width: markerWidth})
	for _, column := range view.Columns {
		columns = append(columns, table.Column{Title: column.Label, Width: columnWidth(column.Label, width, len(view.Columns))})
	}

	var rows []table.Row
	var lines []line
	appendRow := func(row datagrid.Row) {
		id := row.ID(idField)
		marker := " "
		if slices.Contains(view.Selected, id) {
			marker = "*"
		}
		cells := table.Row{marker}
		for _, column := range view.Columns {
			cells = append(cells, cell(row[column.Field]))
		}
		rows = append(rows, cells)
		lines = append(lines, line{row: id})
	}

	if view.Mode == datagrid.ViewGrouped && view.Groups != nil {
		for _, group := range view.Groups {
			marker := "+"
			if group.Expanded {
				marker = "-"
			}
			header := table.Row{marker}
			for i := range view.Columns {
				if i == 0 {
					header = append(header, fmt.Sprintf("%s (%d)", group.Label, group.Count))
					continue
				}
				header = append(header, "")
			}
			rows = append(rows, header)
			lines = append(lines, line{group: group.ID})
			if group.Expanded {
				for _, row := range group.Rows {
					appendRow(row)
				}
			}
		}
		return columns, rows, lines
	}

	for _, row := range view.Rows {
		appendRow(row)
	}
	return columns, rows, lines
}

func columnWidth(label string, total, count int) int {
	width := maxColumnWidth
	if total > 0 && count > 0 {
		width = (total - markerWidth) / count
	}
	width = max(width, len(label)+2, minColumnWidth)
	return min(width, maxColumnWidth)
}

func cell(value any) string {
	if value == nil {
		return ""
	}
	text := fmt.Sprint(value)
	return strings.ReplaceAll(text, "\n", " ")
}
