package options

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	datagrid "github.com/goliatone/go-datagrid"
)

// StateOptions describes a grid state from flags, for commands that build
// a URL without a browser.
type StateOptions struct {
	Search   string
	Page     int
	PerPage  int
	Sort     []string
	Filters  []string
	Hidden   []string
	ViewMode string
}

func AddStateArgs(cmd *cobra.Command, o *StateOptions) {
	flags := cmd.Flags()
	flags.StringVar(&o.Search, "search", "", "Search term.")
	flags.IntVar(&o.Page, "page", 0, "Page number.")
	flags.IntVar(&o.PerPage, "per-page", 0, "Rows per page.")
	flags.StringSliceVar(&o.Sort, "sort", nil, "Sort keys as field or field:desc.")
	flags.StringSliceVar(&o.Filters, "filter", nil, "Filters as column=value or column:op=value.")
	flags.StringSliceVar(&o.Hidden, "hide", nil, "Columns to hide.")
	flags.StringVar(&o.ViewMode, "view", "", "View mode, flat or grouped.")
}

// Apply overlays the flags onto state.
func (o *StateOptions) Apply(state *datagrid.GridState) error {
	if o.Search != "" {
		state.Search = strings.TrimSpace(o.Search)
	}
	if o.Page > 0 {
		state.CurrentPage = o.Page
	}
	if o.PerPage > 0 {
		state.PerPage = o.PerPage
	}
	if len(o.Sort) > 0 {
		state.Sort = state.Sort[:0]
		for _, raw := range o.Sort {
			field, dir, _ := strings.Cut(raw, ":")
			direction := datagrid.SortDirection(strings.ToLower(dir))
			if dir == "" {
				direction = datagrid.SortAsc
			}
			if !direction.Valid() {
				return fmt.Errorf("invalid sort direction in %q", raw)
			}
			state.Sort = append(state.Sort, datagrid.SortField{Field: field, Direction: direction})
		}
	}
	for _, raw := range o.Filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("filter %q must be column=value", raw)
		}
		column, op, _ := strings.Cut(key, ":")
		if op == "" {
			op = "eq"
		}
		state.Filters = append(state.Filters, datagrid.Filter{Column: column, Operator: op, Value: value})
	}
	if len(o.Hidden) > 0 {
		state.HiddenColumns = datagrid.NewStringSet(o.Hidden...)
	}
	if o.ViewMode != "" {
		mode := datagrid.ViewMode(o.ViewMode)
		if !mode.Valid() {
			return fmt.Errorf("unknown view mode %q", o.ViewMode)
		}
		state.ViewMode = mode
	}
	return nil
}
