package datagrid

import (
	"context"
	"slices"

	"github.com/goliatone/go-datagrid/pkg/activity"
)

// UpdateColumnVisibility hides every configured column not in visible.
// Unknown fields are ignored. The URL is pushed unless skipURLUpdate is set,
// which is meant for replaying restored state.
func (g *Grid) UpdateColumnVisibility(ctx context.Context, visible []string, skipURLUpdate bool) error {
	ctx = orBackground(ctx)
	return g.columnsChanged(ctx, func() {
		hidden := StringSet{}
		for _, field := range g.cfg.Fields() {
			if !slices.Contains(visible, field) {
				hidden.Add(field)
			}
		}
		g.state.HiddenColumns = hidden
		g.persisted.HiddenColumns = hidden.Sorted()
		g.saveLocked()
		if !skipURLUpdate {
			g.writeURLLocked(true)
		}
	})
}

// ToggleColumn flips the visibility of one configured column.
func (g *Grid) ToggleColumn(ctx context.Context, field string) error {
	current := g.State()
	if _, ok := g.cfg.Column(field); !ok {
		return nil
	}
	visible := current.VisibleColumns()
	if current.HiddenColumns.Has(field) {
		visible = append(visible, field)
	} else {
		visible = slices.DeleteFunc(visible, func(f string) bool { return f == field })
	}
	return g.UpdateColumnVisibility(ctx, visible, false)
}

// ReorderColumns accepts order after repair: unknown fields are dropped and
// missing configured fields are appended in configured order.
func (g *Grid) ReorderColumns(ctx context.Context, order []string) error {
	ctx = orBackground(ctx)
	return g.columnsChanged(ctx, func() {
		g.state.ColumnOrder = mergeColumnOrder(g.cfg.Fields(), order)
		g.persisted.ColumnOrder = slices.Clone(g.state.ColumnOrder)
		g.saveLocked()
	})
}

// ResetColumnsToDefault restores the configured order and default
// visibility and clears the persisted column fields, so later changes to the
// configured defaults take effect on the next load.
func (g *Grid) ResetColumnsToDefault(ctx context.Context) error {
	ctx = orBackground(ctx)
	err := g.columnsChanged(ctx, func() {
		g.state.HiddenColumns = g.cfg.DefaultHidden()
		g.state.ColumnOrder = g.cfg.Fields()
		g.persisted.HiddenColumns = nil
		g.persisted.ColumnOrder = nil
		g.saveLocked()
		g.writeURLLocked(true)
	})
	if err != nil {
		return err
	}
	g.emit(ctx, activity.BuildColumnsResetEvent(g.eventInput(activity.GridEventInput{})))
	return nil
}

// columnsChanged applies mutate, then re-renders, or refetches when a
// column visibility behavior sends columns to the backend.
func (g *Grid) columnsChanged(ctx context.Context, mutate func()) error {
	if g.behaviors.ColumnVisibility == nil {
		return g.rerender(ctx, func() error {
			mutate()
			return nil
		})
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGridClosed
	}
	mutate()
	g.mu.Unlock()
	return g.Refresh(ctx)
}
