package datagrid

import (
	"slices"

	"github.com/goliatone/go-datagrid/layering"
)

// reconciliation is the outcome of one merge of defaults, persisted and URL
// state.
type reconciliation struct {
	state           GridState
	provenance      layering.Provenance
	hasURLOverrides bool
}

// defaultsPatch is the weakest layer: configured per-page size, view and
// expand modes, default-hidden columns and the configured column order.
func defaultsPatch(cfg Config) StatePatch {
	return StatePatch{
		Search:         ptr(""),
		Page:           ptr(1),
		PerPage:        ptr(cfg.PerPage),
		Filters:        []Filter{},
		Sort:           []SortField{},
		HiddenColumns:  cfg.DefaultHidden().Sorted(),
		ColumnOrder:    cfg.Fields(),
		ViewMode:       ptr(cfg.DefaultViewMode),
		ExpandMode:     ptr(cfg.DefaultExpandMode),
		ExpandedGroups: []string{},
	}
}

// reconcile merges the layers field by field, strongest present source
// first: URL, hydrated, persisted, defaults. Column invariants are enforced
// on the result.
func reconcile(cfg Config, persisted, hydrated *Snapshot, urlPatch StatePatch) reconciliation {
	layers := []layering.Layer[StatePatch]{
		layering.NewLayer(layering.LevelDefaults, defaultsPatch(cfg)),
	}
	if persisted != nil {
		layers = append(layers, layering.NewLayer(layering.LevelPersisted, persisted.Patch()))
	}
	if hydrated != nil {
		layers = append(layers, layering.NewLayer(layering.LevelHydrated, hydrated.Patch()))
	}
	hasURL := !urlPatch.Empty()
	if hasURL {
		layers = append(layers, layering.NewLayer(layering.LevelURL, urlPatch))
	}

	merged, provenance := layering.Merge(layers...)
	state := stateFromPatch(cfg, merged)
	state.HasPersistedExpandState = fromStore(provenance, "expandMode") || fromStore(provenance, "expandedGroups")
	return reconciliation{state: state, provenance: provenance, hasURLOverrides: hasURL}
}

func fromStore(provenance layering.Provenance, field string) bool {
	return provenance.Has(field, layering.LevelPersisted) || provenance.Has(field, layering.LevelHydrated)
}

// stateFromPatch materializes a fully merged patch into a GridState.
func stateFromPatch(cfg Config, patch StatePatch) GridState {
	state := GridState{
		CurrentPage:    1,
		PerPage:        cfg.PerPage,
		SelectedRows:   StringSet{},
		HiddenColumns:  filterHidden(cfg, patch.HiddenColumns),
		ColumnOrder:    mergeColumnOrder(cfg.Fields(), patch.ColumnOrder),
		ViewMode:       cfg.DefaultViewMode,
		ExpandMode:     cfg.DefaultExpandMode,
		ExpandedGroups: NewStringSet(patch.ExpandedGroups...),
		Filters:        sanitizeFilters(patch.Filters),
		Sort:           sanitizeSort(patch.Sort),
	}
	if state.Filters == nil {
		state.Filters = []Filter{}
	}
	if state.Sort == nil {
		state.Sort = []SortField{}
	}
	if patch.Search != nil {
		state.Search = *patch.Search
	}
	if patch.Page != nil && *patch.Page >= 1 {
		state.CurrentPage = *patch.Page
	}
	if patch.PerPage != nil && *patch.PerPage > 0 {
		state.PerPage = *patch.PerPage
	}
	if patch.ViewMode != nil && patch.ViewMode.Valid() {
		state.ViewMode = *patch.ViewMode
	}
	if state.ViewMode == ViewGrouped && cfg.GroupBy == "" {
		state.ViewMode = ViewFlat
	}
	if patch.ExpandMode != nil && patch.ExpandMode.Valid() {
		state.ExpandMode = *patch.ExpandMode
	}
	return state
}

// filterHidden keeps only configured fields.
func filterHidden(cfg Config, hidden []string) StringSet {
	fields := cfg.Fields()
	out := StringSet{}
	for _, field := range hidden {
		if slices.Contains(fields, field) {
			out.Add(field)
		}
	}
	return out
}

// mergeColumnOrder returns order ∩ configured, followed by configured fields
// missing from order in configured sequence. The result is always a
// permutation of configured.
func mergeColumnOrder(configured, order []string) []string {
	out := make([]string, 0, len(configured))
	seen := make(map[string]struct{}, len(configured))
	for _, field := range order {
		if _, dup := seen[field]; dup || !slices.Contains(configured, field) {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	for _, field := range configured {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}
