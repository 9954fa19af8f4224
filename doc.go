// Package datagrid is the state and query synchronization engine behind a
// paginated, filterable data table.
//
// A Grid reconciles three sources of view state (the address-bar query
// string, a persisted per-panel snapshot and configured defaults), turns the
// result into outbound query parameters through pluggable behaviors, owns the
// single in-flight fetch for its panel and renders either a flat list or a
// grouped view with independently tracked expand state.
//
// Precedence is always URL over persisted over defaults:
//
//	grid, err := registry.Init(ctx, cfg,
//		datagrid.WithStore(store),
//		datagrid.WithHistory(history),
//		datagrid.WithRenderer(renderer),
//	)
//	if err != nil {
//		return err
//	}
//	_ = grid.SetPage(ctx, 2)
//
// Rendering, notifications, the address bar and HTTP are collaborators
// supplied through options; the engine only talks to them through the small
// interfaces declared in render.go and transport.go.
package datagrid
