package datagrid

import "strings"

// Selection survives refreshes and page changes; only these methods change
// it.

func (g *Grid) SelectRow(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.SelectedRows.Add(id)
}

func (g *Grid) DeselectRow(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.SelectedRows.Remove(strings.TrimSpace(id))
}

// ToggleRow flips id and reports whether it is now selected.
func (g *Grid) ToggleRow(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.SelectedRows.Has(id) {
		g.state.SelectedRows.Remove(id)
		return false
	}
	g.state.SelectedRows.Add(id)
	return true
}

func (g *Grid) SelectRows(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.state.SelectedRows.Add(id)
	}
}

// SelectAllOnPage selects every row currently displayed and returns how many
// ids were added.
func (g *Grid) SelectAllOnPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	added := 0
	for _, row := range g.rows {
		id := row.ID(g.cfg.IDField)
		if id == "" || g.state.SelectedRows.Has(id) {
			continue
		}
		g.state.SelectedRows.Add(id)
		added++
	}
	return added
}

func (g *Grid) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.SelectedRows = StringSet{}
}

func (g *Grid) IsSelected(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.SelectedRows.Has(id)
}

// SelectedRows returns the selected ids in ascending order.
func (g *Grid) SelectedRows() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.SelectedRows.Sorted()
}
