package datagrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry owns the grids of one page or process, keyed by panel id. No two
// grids may share a panel key.
type Registry struct {
	mu    sync.Mutex
	grids map[string]*Grid
	opts  []Option
}

// NewRegistry returns a registry whose Init applies opts before the
// per-grid options.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{grids: map[string]*Grid{}, opts: opts}
}

// Init builds and registers a grid for cfg.PanelID.
func (r *Registry) Init(ctx context.Context, cfg Config, opts ...Option) (*Grid, error) {
	panel := cfg.withDefaults().PanelID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.grids[panel]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePanel, panel)
	}
	all := append(append([]Option(nil), r.opts...), opts...)
	grid, err := New(ctx, cfg, all...)
	if err != nil {
		return nil, err
	}
	r.grids[panel] = grid
	return grid, nil
}

func (r *Registry) Get(panel string) (*Grid, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grid, ok := r.grids[panel]
	return grid, ok
}

// Remove closes and unregisters the grid for panel.
func (r *Registry) Remove(panel string) error {
	r.mu.Lock()
	grid, ok := r.grids[panel]
	delete(r.grids, panel)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return grid.Close()
}

// Panels lists registered panel ids in ascending order.
func (r *Registry) Panels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.grids))
	for panel := range r.grids {
		out = append(out, panel)
	}
	sort.Strings(out)
	return out
}

// Close closes every grid and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	grids := r.grids
	r.grids = map[string]*Grid{}
	r.mu.Unlock()
	var errs []error
	for _, grid := range grids {
		errs = append(errs, grid.Close())
	}
	return errors.Join(errs...)
}
