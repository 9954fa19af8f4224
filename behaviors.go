package datagrid

import "context"

// QueryParams is the flat key/value map sent to the data endpoint.
type QueryParams map[string]string

// PaginationBehavior turns page and page size into query parameters.
type PaginationBehavior interface {
	BuildPaginationQuery(page, perPage int) QueryParams
}

// SearchBehavior turns the free-text search term into query parameters.
type SearchBehavior interface {
	BuildSearchQuery(term string) QueryParams
}

// FilterBehavior turns the ordered filter list into query parameters.
type FilterBehavior interface {
	BuildFilterQuery(filters []Filter) QueryParams
}

// SortBehavior turns the ordered sort list into query parameters.
type SortBehavior interface {
	BuildSortQuery(sort []SortField) QueryParams
}

// ColumnVisibilityBehavior lets a backend receive the visible column set,
// e.g. to trim the returned fields.
type ColumnVisibilityBehavior interface {
	BuildColumnsQuery(visible []string) QueryParams
}

// ExportBehavior builds a download link for the current, unpaginated query.
type ExportBehavior interface {
	ExportURL(endpoint, format string, params QueryParams) (string, error)
}

// BulkActionBehavior executes a named bulk action over a captured id list.
type BulkActionBehavior interface {
	ExecuteBulkAction(ctx context.Context, action string, ids []string) error
}

// Change hooks. A behavior implementing one of these replaces the default
// Refresh that follows the corresponding state change.
type (
	PageChangeHook interface {
		OnPageChange(ctx context.Context, page int, grid *Grid) error
	}
	SearchChangeHook interface {
		OnSearchChange(ctx context.Context, term string, grid *Grid) error
	}
	FilterChangeHook interface {
		OnFilterChange(ctx context.Context, filters []Filter, grid *Grid) error
	}
	SortChangeHook interface {
		OnSortChange(ctx context.Context, sort []SortField, grid *Grid) error
	}
)

// Behaviors is the closed set of optional capabilities a grid consults. A
// nil member contributes nothing.
type Behaviors struct {
	Pagination       PaginationBehavior
	Search           SearchBehavior
	Filter           FilterBehavior
	Sort             SortBehavior
	ColumnVisibility ColumnVisibilityBehavior
	Export           ExportBehavior
	BulkAction       BulkActionBehavior
}

// DefaultBehaviors returns the REST conventions understood by pkg/memsource:
// page/per_page, search, <col>/<col>__<op> filters, order=<field> <dir>, and
// <endpoint>/export links. Bulk actions default to the grid's transport.
func DefaultBehaviors() Behaviors {
	return Behaviors{
		Pagination: PagePagination{},
		Search:     TermSearch{},
		Filter:     OperatorFilter{},
		Sort:       OrderSort{},
		Export:     LinkExport{},
	}
}

type concern int

const (
	concernPage concern = iota
	concernSearch
	concernFilter
	concernSort
)

// dispatchHook invokes the matching change hook when the behavior for c
// implements one. It reports whether a hook handled the change.
func (b Behaviors) dispatchHook(ctx context.Context, c concern, g *Grid, state GridState) (bool, error) {
	switch c {
	case concernPage:
		if hook, ok := b.Pagination.(PageChangeHook); ok {
			return true, hook.OnPageChange(ctx, state.CurrentPage, g)
		}
	case concernSearch:
		if hook, ok := b.Search.(SearchChangeHook); ok {
			return true, hook.OnSearchChange(ctx, state.Search, g)
		}
	case concernFilter:
		if hook, ok := b.Filter.(FilterChangeHook); ok {
			return true, hook.OnFilterChange(ctx, state.Filters, g)
		}
	case concernSort:
		if hook, ok := b.Sort.(SortChangeHook); ok {
			return true, hook.OnSortChange(ctx, state.Sort, g)
		}
	}
	return false, nil
}
