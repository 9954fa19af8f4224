package datagrid

import (
	"slices"
	"strings"
)

// StatePatch is a partial GridState contributed by one source. A nil field
// is absent. A non-nil empty slice is an explicit empty value and overrides
// weaker sources.
type StatePatch struct {
	Search         *string     `json:"search,omitempty"`
	Page           *int        `json:"page,omitempty"`
	PerPage        *int        `json:"perPage,omitempty"`
	Filters        []Filter    `json:"filters"`
	Sort           []SortField `json:"sort"`
	HiddenColumns  []string    `json:"hiddenColumns"`
	ColumnOrder    []string    `json:"columnOrder"`
	ViewMode       *ViewMode   `json:"viewMode,omitempty"`
	ExpandMode     *ExpandMode `json:"expandMode,omitempty"`
	ExpandedGroups []string    `json:"expandedGroups"`
}

// Keys returns the json names of the present fields, in declaration order.
func (p StatePatch) Keys() []string {
	var keys []string
	add := func(present bool, key string) {
		if present {
			keys = append(keys, key)
		}
	}
	add(p.Search != nil, "search")
	add(p.Page != nil, "page")
	add(p.PerPage != nil, "perPage")
	add(p.Filters != nil, "filters")
	add(p.Sort != nil, "sort")
	add(p.HiddenColumns != nil, "hiddenColumns")
	add(p.ColumnOrder != nil, "columnOrder")
	add(p.ViewMode != nil, "viewMode")
	add(p.ExpandMode != nil, "expandMode")
	add(p.ExpandedGroups != nil, "expandedGroups")
	return keys
}

// Empty reports whether no field is present.
func (p StatePatch) Empty() bool {
	return len(p.Keys()) == 0
}

// Snapshot is the persisted projection of a grid's layout state. Absent
// slices encode as null and decode back to absent.
type Snapshot struct {
	HiddenColumns  []string    `json:"hiddenColumns"`
	ColumnOrder    []string    `json:"columnOrder"`
	ViewMode       *ViewMode   `json:"viewMode,omitempty"`
	ExpandMode     *ExpandMode `json:"expandMode,omitempty"`
	ExpandedGroups []string    `json:"expandedGroups"`
}

// IsZero reports whether the snapshot carries no field.
func (s Snapshot) IsZero() bool {
	return s.HiddenColumns == nil && s.ColumnOrder == nil && s.ViewMode == nil &&
		s.ExpandMode == nil && s.ExpandedGroups == nil
}

// HasExpandState reports whether the snapshot carries expand state.
func (s Snapshot) HasExpandState() bool {
	return s.ExpandMode != nil || s.ExpandedGroups != nil
}

// Patch converts the snapshot into a StatePatch, dropping invalid enums.
func (s Snapshot) Patch() StatePatch {
	patch := StatePatch{
		HiddenColumns:  cleanStrings(s.HiddenColumns),
		ColumnOrder:    cleanStrings(s.ColumnOrder),
		ExpandedGroups: cleanStrings(s.ExpandedGroups),
	}
	if s.ViewMode != nil && s.ViewMode.Valid() {
		patch.ViewMode = ptr(*s.ViewMode)
	}
	if s.ExpandMode != nil && s.ExpandMode.Valid() {
		patch.ExpandMode = ptr(*s.ExpandMode)
	}
	return patch
}

// cleanStrings trims entries and drops blanks and duplicates. A nil input
// stays nil; a non-nil input never becomes nil.
func cleanStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || slices.Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}
