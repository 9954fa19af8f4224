package datagrid

import (
	"slices"
	"strings"
)

// ViewMode selects flat or grouped rendering.
type ViewMode string

const (
	ViewFlat    ViewMode = "flat"
	ViewGrouped ViewMode = "grouped"
)

func (m ViewMode) Valid() bool {
	return m == ViewFlat || m == ViewGrouped
}

// ExpandMode governs the default expansion of a group that has no explicit
// entry in ExpandedGroups.
type ExpandMode string

const (
	ExpandExplicit     ExpandMode = "explicit"
	ExpandAllExpanded  ExpandMode = "all-expanded"
	ExpandAllCollapsed ExpandMode = "all-collapsed"
)

func (m ExpandMode) Valid() bool {
	switch m {
	case ExpandExplicit, ExpandAllExpanded, ExpandAllCollapsed:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Filter is one {column, operator, value} condition. Operators are free-form;
// the filter behavior decides what they mean on the wire.
type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// SortField is one sort key; the first entry of a sort list is primary.
type SortField struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Column is one configured column definition.
type Column struct {
	Field    string `json:"field" toml:"field"`
	Label    string `json:"label,omitempty" toml:"label"`
	Sortable bool   `json:"sortable,omitempty" toml:"sortable"`
	// Hidden marks the column as hidden by default.
	Hidden bool `json:"hidden,omitempty" toml:"hidden"`
}

// Row is one record returned by the data endpoint.
type Row map[string]any

// ID returns the row identifier stored under field, formatted as a string.
func (r Row) ID(field string) string {
	value, ok := r[field]
	if !ok || value == nil {
		return ""
	}
	return stringify(value)
}

// Group is one entry of a grouped response.
type Group struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
	// Expanded is the server's default for this group.
	Expanded bool  `json:"expanded"`
	Rows     []Row `json:"rows"`
}

// GroupedData is the last successfully fetched grouped payload.
type GroupedData struct {
	Groups []Group
	Total  *int
}

func (g *GroupedData) clone() *GroupedData {
	if g == nil {
		return nil
	}
	out := &GroupedData{Groups: make([]Group, len(g.Groups)), Total: cloneIntPtr(g.Total)}
	for i, group := range g.Groups {
		out.Groups[i] = group
		out.Groups[i].Rows = slices.Clone(group.Rows)
	}
	return out
}

// GroupIDs returns the identifiers of every known group in payload order.
func (g *GroupedData) GroupIDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, 0, len(g.Groups))
	for _, group := range g.Groups {
		ids = append(ids, group.ID)
	}
	return ids
}

// StringSet is an unordered set of identifiers.
type StringSet map[string]struct{}

func NewStringSet(values ...string) StringSet {
	set := make(StringSet, len(values))
	for _, value := range values {
		set.Add(value)
	}
	return set
}

func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

func (s StringSet) Add(value string) {
	if value = strings.TrimSpace(value); value != "" {
		s[value] = struct{}{}
	}
}

func (s StringSet) Remove(value string) {
	delete(s, value)
}

// Sorted returns the members in ascending order. It never returns nil.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for value := range s {
		out = append(out, value)
	}
	slices.Sort(out)
	return out
}

func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for value := range s {
		out[value] = struct{}{}
	}
	return out
}

func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for value := range s {
		if !other.Has(value) {
			return false
		}
	}
	return true
}

// GridState is the authoritative view state of one grid instance. Callers
// receive copies through Grid.State; mutation goes through Grid methods.
type GridState struct {
	CurrentPage int
	PerPage     int
	// TotalRows is nil until the server reports a total.
	TotalRows *int

	Search  string
	Filters []Filter
	Sort    []SortField

	SelectedRows StringSet

	HiddenColumns StringSet
	ColumnOrder   []string

	ViewMode       ViewMode
	ExpandMode     ExpandMode
	ExpandedGroups StringSet
	GroupedData    *GroupedData

	HasPersistedExpandState bool
}

// Clone returns a deep copy of s.
func (s GridState) Clone() GridState {
	out := s
	out.TotalRows = cloneIntPtr(s.TotalRows)
	out.Filters = slices.Clone(s.Filters)
	out.Sort = slices.Clone(s.Sort)
	out.SelectedRows = s.SelectedRows.Clone()
	out.HiddenColumns = s.HiddenColumns.Clone()
	out.ColumnOrder = slices.Clone(s.ColumnOrder)
	out.ExpandedGroups = s.ExpandedGroups.Clone()
	out.GroupedData = s.GroupedData.clone()
	return out
}

// VisibleColumns returns ColumnOrder without hidden columns.
func (s GridState) VisibleColumns() []string {
	out := make([]string, 0, len(s.ColumnOrder))
	for _, field := range s.ColumnOrder {
		if !s.HiddenColumns.Has(field) {
			out = append(out, field)
		}
	}
	return out
}

// TotalPages returns the page count, or 0 when the total is unknown.
func (s GridState) TotalPages() int {
	if s.TotalRows == nil || s.PerPage <= 0 {
		return 0
	}
	total := *s.TotalRows
	if total == 0 {
		return 1
	}
	return (total + s.PerPage - 1) / s.PerPage
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

func ptr[T any](value T) *T {
	return &value
}
