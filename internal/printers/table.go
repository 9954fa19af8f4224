// Package printers renders grid frames as plain terminal tables.
package printers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	datagrid "github.com/goliatone/go-datagrid"
)

// Table prints each frame it receives. It satisfies datagrid.Renderer and
// datagrid.Notifier.
type Table struct {
	Out     io.Writer
	IDField string
	JSON    bool

	mu     sync.Mutex
	frames int
}

func (t *Table) out() io.Writer {
	if t.Out != nil {
		return t.Out
	}
	return color.Output
}

// Frames reports how many frames were printed.
func (t *Table) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

func (t *Table) Render(_ context.Context, view datagrid.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames++
	if t.JSON {
		enc := json.NewEncoder(t.out())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	bold := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)
	group := color.New(color.FgHiCyan, color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	header := []any{" "}
	for _, column := range view.Columns {
		header = append(header, bold.Sprint(column.Label))
	}
	tbl.AddRow(header...)

	addRow := func(row datagrid.Row) {
		marker := " "
		if slices.Contains(view.Selected, row.ID(t.idField())) {
			marker = "*"
		}
		cells := []any{marker}
		for _, column := range view.Columns {
			if value, ok := row[column.Field]; ok && value != nil {
				cells = append(cells, fmt.Sprint(value))
			} else {
				cells = append(cells, "")
			}
		}
		tbl.AddRow(cells...)
	}

	if view.Mode == datagrid.ViewGrouped && view.Groups != nil {
		for _, g := range view.Groups {
			marker := "+"
			if g.Expanded {
				marker = "-"
			}
			tbl.AddRow(marker, group.Sprintf("%s (%d)", g.Label, g.Count))
			if g.Expanded {
				for _, row := range g.Rows {
					addRow(row)
				}
			}
		}
	} else {
		for _, row := range view.Rows {
			addRow(row)
		}
	}

	_, _ = fmt.Fprintln(t.out(), tbl)
	_, _ = fmt.Fprintln(t.out(), faint.Sprint(Summary(view)))
	return nil
}

func (t *Table) Notify(_ context.Context, severity datagrid.Severity, message string) {
	c := color.New(color.FgHiBlue)
	switch severity {
	case datagrid.SeverityError:
		c = color.New(color.FgHiRed, color.Bold)
	case datagrid.SeverityWarning:
		c = color.New(color.FgHiYellow)
	}
	_, _ = fmt.Fprintln(t.out(), c.Sprintf("%s: %s", severity, message))
}

func (t *Table) idField() string {
	if t.IDField != "" {
		return t.IDField
	}
	return datagrid.DefaultIDField
}

// Summary is the one-line footer printed under a frame.
func Summary(view datagrid.View) string {
	parts := []string{fmt.Sprintf("%s view", view.Mode)}
	if view.TotalPages > 0 {
		parts = append(parts, fmt.Sprintf("page %d of %d", view.Page, view.TotalPages))
	} else {
		parts = append(parts, fmt.Sprintf("page %d", view.Page))
	}
	if view.TotalRows != nil {
		parts = append(parts, fmt.Sprintf("%d rows", *view.TotalRows))
	}
	if view.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", view.Search))
	}
	return strings.Join(parts, ", ")
}

// Trace prints the source of every reconciled field.
func Trace(w io.Writer, trace datagrid.Trace) {
	if w == nil {
		w = color.Output
	}
	bold := color.New(color.Bold)
	sources := map[string]*color.Color{
		"url":       color.New(color.FgHiGreen),
		"hydrated":  color.New(color.FgHiMagenta),
		"persisted": color.New(color.FgHiYellow),
		"defaults":  color.New(color.Faint),
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Field"), bold.Sprint("Source"))
	for _, field := range trace.Fields {
		source := field.Source
		if c, ok := sources[source]; ok {
			source = c.Sprint(source)
		}
		tbl.AddRow(field.Field, source)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}
