package datagrid

import (
	"context"
	"net/http"
	"sync"

	"github.com/goliatone/go-datagrid/pkg/activity"
	"github.com/google/uuid"
)

// fetchController owns the single cancellation token of a grid. Every
// begin supersedes the previous request; only the current generation may
// apply a response.
type fetchController struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// begin cancels the in-flight request and returns a context for the new one,
// bound to both the caller's ctx and the grid lifetime. Callers hold f.mu.
func (f *fetchController) begin(ctx, lifetime context.Context) (context.Context, uint64) {
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	fctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(lifetime, cancel)
	f.cancel = func() {
		stop()
		cancel()
	}
	return fctx, f.generation
}

// finish releases the token of generation if it is still current. Callers
// hold f.mu.
func (f *fetchController) finish(generation uint64) {
	if generation != f.generation || f.cancel == nil {
		return
	}
	f.cancel()
	f.cancel = nil
}

// Refresh fetches the current state from the data endpoint and renders it.
// A newer Refresh supersedes this one: its response, success or failure, is
// discarded and Refresh returns nil. In grouped mode an unsupported
// capability demotes the grid to flat and fetches once more. Transport
// failures are reported once through the Notifier, returned, and leave the
// previous data in place.
func (g *Grid) Refresh(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g.fetch.mu.Lock()
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.fetch.mu.Unlock()
		return ErrGridClosed
	}
	mode := g.state.ViewMode
	params := buildQueryParams(g.cfg, g.behaviors, g.state, queryScope{})
	g.mu.Unlock()
	fctx, generation := g.fetch.begin(ctx, g.ctx)
	g.fetch.mu.Unlock()

	req := Request{
		Method: http.MethodGet,
		URL:    joinQuery(g.cfg.APIEndpoint, params.Encode()),
		ID:     uuid.NewString(),
	}
	g.logger.Debug("datagrid: fetching", "panel", g.cfg.PanelID, "request_id", req.ID, "url", req.URL, "mode", mode)

	resp, err := g.transport.Do(fctx, req)
	var decoded fetchResult
	if err == nil {
		decoded, err = decodePage(g.cfg.PanelID, mode, resp.Body)
	}

	g.fetch.mu.Lock()
	if generation != g.fetch.generation || fctx.Err() != nil || g.ctx.Err() != nil {
		g.fetch.mu.Unlock()
		g.logger.Debug("datagrid: discarded superseded response", "panel", g.cfg.PanelID, "request_id", req.ID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	g.fetch.finish(generation)

	if err != nil && mode == ViewGrouped && IsUnsupported(err) {
		g.mu.Lock()
		g.state.ViewMode = ViewFlat
		g.state.GroupedData = nil
		g.persisted.ViewMode = ptr(ViewFlat)
		g.viewDirty = true
		g.saveLocked()
		g.writeURLLocked(false)
		g.mu.Unlock()
		g.fetch.mu.Unlock()

		g.logger.Info("datagrid: grouped view unsupported, falling back to flat",
			"panel", g.cfg.PanelID, "request_id", req.ID, "reason", err)
		g.emit(ctx, activity.BuildViewDemotedEvent(g.eventInput(activity.GridEventInput{Reason: err.Error()})))
		return g.Refresh(ctx)
	}

	if err != nil {
		g.fetch.mu.Unlock()
		g.logger.Error("datagrid: fetch failed", "panel", g.cfg.PanelID, "request_id", req.ID, "error", err)
		g.notifier.Notify(ctx, SeverityError, fetchFailedMessage)
		return err
	}

	g.mu.Lock()
	g.rows = decoded.Rows
	g.state.TotalRows = cloneIntPtr(decoded.Total)
	if mode == ViewGrouped {
		g.state.GroupedData = decoded.Groups
	} else {
		g.state.GroupedData = nil
	}
	view := g.buildView(g.rows)
	g.mu.Unlock()

	renderErr := g.renderer.Render(ctx, view)
	g.fetch.mu.Unlock()
	if renderErr != nil {
		g.logger.Error("datagrid: render failed", "panel", g.cfg.PanelID, "error", renderErr)
		return renderErr
	}
	return nil
}

// Rerender draws the current rows again without fetching.
func (g *Grid) Rerender(ctx context.Context) error {
	return g.rerender(ctx, nil)
}

// rerender applies mutate under the state lock and renders the result,
// serialized with Refresh so frames never arrive out of order.
func (g *Grid) rerender(ctx context.Context, mutate func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	g.fetch.mu.Lock()
	defer g.fetch.mu.Unlock()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGridClosed
	}
	if mutate != nil {
		if err := mutate(); err != nil {
			g.mu.Unlock()
			return err
		}
	}
	view := g.buildView(g.rows)
	g.mu.Unlock()
	return g.renderer.Render(ctx, view)
}

const fetchFailedMessage = "Could not load data. Please try again."
