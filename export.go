package datagrid

// ExportURL returns a download link for the current filters, search and
// sort in format. Pagination keys are left out so the export covers every
// matching row.
func (g *Grid) ExportURL(format string) (string, error) {
	if g.behaviors.Export == nil {
		return "", ErrExportNotConfigured
	}
	g.mu.Lock()
	params := buildQueryParams(g.cfg, g.behaviors, g.state, queryScope{skipPagination: true})
	g.mu.Unlock()
	return g.behaviors.Export.ExportURL(g.cfg.APIEndpoint, format, params)
}
