package datagrid

import (
	"context"
	"fmt"
	"strings"
)

// resolveExpanded applies the expansion rules: an entry in ExpandedGroups
// wins, then ExpandMode. In explicit mode the server default applies only
// until expand state has been persisted or set by the user.
func resolveExpanded(state GridState, group Group) bool {
	if state.ExpandedGroups.Has(group.ID) {
		return true
	}
	switch state.ExpandMode {
	case ExpandAllExpanded:
		return true
	case ExpandAllCollapsed:
		return false
	default:
		return !state.HasPersistedExpandState && group.Expanded
	}
}

// SetViewMode switches between flat and grouped rendering, persists the
// choice and fetches.
func (g *Grid) SetViewMode(ctx context.Context, mode ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("datagrid: unknown view mode %q", mode)
	}
	if mode == ViewGrouped && g.cfg.GroupBy == "" {
		return fmt.Errorf("datagrid: grouped view requires group_by")
	}
	ctx = orBackground(ctx)
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGridClosed
	}
	g.state.ViewMode = mode
	if mode == ViewFlat {
		g.state.GroupedData = nil
	}
	g.persisted.ViewMode = ptr(mode)
	g.viewDirty = true
	g.saveLocked()
	g.writeURLLocked(true)
	g.mu.Unlock()
	return g.Refresh(ctx)
}

// IsGroupExpanded resolves the expansion of a known group. Unknown groups
// resolve as if the server default were collapsed.
func (g *Grid) IsGroupExpanded(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	group := Group{ID: id}
	if g.state.GroupedData != nil {
		for _, known := range g.state.GroupedData.Groups {
			if known.ID == id {
				group = known
				break
			}
		}
	}
	return resolveExpanded(g.state, group)
}

// ToggleGroup flips one group. The resolved expansion of every known group
// is first captured into ExpandedGroups and the mode becomes explicit, so
// the other groups keep their current appearance.
func (g *Grid) ToggleGroup(ctx context.Context, id string) error {
	ctx = orBackground(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return g.rerender(ctx, func() error {
		expanded := g.state.ExpandedGroups.Clone()
		if g.state.GroupedData != nil {
			for _, group := range g.state.GroupedData.Groups {
				if resolveExpanded(g.state, group) {
					expanded.Add(group.ID)
				} else {
					expanded.Remove(group.ID)
				}
			}
		}
		if expanded.Has(id) {
			expanded.Remove(id)
		} else {
			expanded.Add(id)
		}
		g.setExpandLocked(ExpandExplicit, expanded)
		return nil
	})
}

// ExpandAllGroups expands every known group and makes groups discovered by
// later fetches expanded too.
func (g *Grid) ExpandAllGroups(ctx context.Context) error {
	ctx = orBackground(ctx)
	return g.rerender(ctx, func() error {
		g.setExpandLocked(ExpandAllExpanded, NewStringSet(g.state.GroupedData.GroupIDs()...))
		return nil
	})
}

// CollapseAllGroups collapses every group, including ones discovered later.
func (g *Grid) CollapseAllGroups(ctx context.Context) error {
	ctx = orBackground(ctx)
	return g.rerender(ctx, func() error {
		g.setExpandLocked(ExpandAllCollapsed, StringSet{})
		return nil
	})
}

// setExpandLocked records user-driven expand state, persists it and pushes
// the URL. Callers hold g.mu.
func (g *Grid) setExpandLocked(mode ExpandMode, expanded StringSet) {
	g.state.ExpandMode = mode
	g.state.ExpandedGroups = expanded
	g.state.HasPersistedExpandState = true
	g.expandDirty = true
	g.persisted.ExpandMode = ptr(mode)
	g.persisted.ExpandedGroups = expanded.Sorted()
	g.saveLocked()
	g.writeURLLocked(true)
}
