package datagrid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/goliatone/go-datagrid/pkg/rules"
)

// BulkAction is a named operation over the selected rows.
type BulkAction struct {
	Name  string
	Label string
	// EnabledWhen is a rule expression evaluated against selected, count,
	// page and total. Empty means always enabled.
	EnabledWhen string
	// ClearSelection deselects the ids the action ran on once it succeeds.
	ClearSelection bool
	// Handler runs the action. Nil uses the grid's BulkActionBehavior.
	Handler func(ctx context.Context, ids []string) error
}

// BulkActions returns the registered actions in registration order.
func (g *Grid) BulkActions() []BulkAction {
	out := make([]BulkAction, 0, len(g.bulkOrder))
	for _, name := range g.bulkOrder {
		out = append(out, g.bulk[name])
	}
	return out
}

// BulkActionEnabled evaluates the guard of name against the current
// selection.
func (g *Grid) BulkActionEnabled(name string) (bool, error) {
	action, ok := g.bulk[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownBulkAction, name)
	}
	g.mu.Lock()
	ids := g.state.SelectedRows.Sorted()
	facts := g.ruleFactsLocked(ids)
	g.mu.Unlock()
	return g.guard(action, facts)
}

// ExecuteBulkAction runs name over the selection captured at call time.
// Selection changes made while the action runs do not affect its id list.
// On success an activity event is emitted and the grid refreshes.
func (g *Grid) ExecuteBulkAction(ctx context.Context, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	action, ok := g.bulk[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBulkAction, name)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGridClosed
	}
	ids := g.state.SelectedRows.Sorted()
	facts := g.ruleFactsLocked(ids)
	g.mu.Unlock()

	if len(ids) == 0 {
		return ErrEmptySelection
	}
	enabled, err := g.guard(action, facts)
	if err != nil {
		return err
	}
	if !enabled {
		return fmt.Errorf("%w: %q", ErrBulkActionDisabled, name)
	}

	run := action.Handler
	if run == nil {
		run = func(ctx context.Context, ids []string) error {
			return g.behaviors.BulkAction.ExecuteBulkAction(ctx, name, ids)
		}
	}
	if err := run(ctx, append([]string(nil), ids...)); err != nil {
		if !IsCancellation(err) {
			g.logger.Error("datagrid: bulk action failed", "panel", g.cfg.PanelID, "action", name, "error", err)
			g.notifier.Notify(ctx, SeverityError, fmt.Sprintf("%s failed. Please try again.", actionLabel(action)))
		}
		return err
	}

	if action.ClearSelection {
		g.mu.Lock()
		for _, id := range ids {
			g.state.SelectedRows.Remove(id)
		}
		g.mu.Unlock()
	}
	g.logger.Info("datagrid: bulk action executed", "panel", g.cfg.PanelID, "action", name, "count", len(ids))
	g.emit(ctx, activity.BuildBulkActionEvent(g.eventInput(activity.GridEventInput{Action: name, Rows: ids})))
	return g.Refresh(ctx)
}

// DeleteRow sends DELETE <endpoint>/<id>, deselects id and refreshes.
func (g *Grid) DeleteRow(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("datagrid: row id is required")
	}
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return ErrGridClosed
	}

	req := Request{Method: http.MethodDelete, URL: g.cfg.APIEndpoint + "/" + url.PathEscape(id)}
	if _, err := g.transport.Do(ctx, req); err != nil {
		if !IsCancellation(err) {
			g.logger.Error("datagrid: delete row failed", "panel", g.cfg.PanelID, "row", id, "error", err)
			g.notifier.Notify(ctx, SeverityError, "Could not delete the row. Please try again.")
		}
		return err
	}

	g.mu.Lock()
	g.state.SelectedRows.Remove(id)
	g.mu.Unlock()
	g.emit(ctx, activity.BuildRowDeletedEvent(g.eventInput(activity.GridEventInput{ObjectID: id, Rows: []string{id}})))
	return g.Refresh(ctx)
}

func (g *Grid) guard(action BulkAction, facts map[string]any) (bool, error) {
	if strings.TrimSpace(action.EnabledWhen) == "" {
		return true, nil
	}
	return g.rules.EvaluateBool(rules.RuleContext{Snapshot: facts, ScopeName: "bulk:" + action.Name}, action.EnabledWhen)
}

// ruleFactsLocked exposes the selection to guard expressions. total is -1
// while unknown. Callers hold g.mu.
func (g *Grid) ruleFactsLocked(ids []string) map[string]any {
	total := -1
	if g.state.TotalRows != nil {
		total = *g.state.TotalRows
	}
	return map[string]any{
		"selected": append([]string(nil), ids...),
		"count":    len(ids),
		"page":     g.state.CurrentPage,
		"total":    total,
	}
}

func actionLabel(action BulkAction) string {
	if action.Label != "" {
		return action.Label
	}
	return action.Name
}
