package datagrid

import (
	"maps"
	"net/url"
	"strings"
)

// Values converts p into url.Values.
func (p QueryParams) Values() url.Values {
	values := make(url.Values, len(p))
	for key, value := range p {
		values.Set(key, value)
	}
	return values
}

// Encode returns the query string with keys sorted.
func (p QueryParams) Encode() string {
	return p.Values().Encode()
}

type queryScope struct {
	skipPagination bool
}

// buildQueryParams runs the behaviors in fixed order (pagination, search,
// filter, sort, columns) and shallow-merges their maps, so later concerns
// overwrite earlier keys. Grouped state adds view_mode and group_by.
func buildQueryParams(cfg Config, behaviors Behaviors, state GridState, scope queryScope) QueryParams {
	params := QueryParams{}
	if behaviors.Pagination != nil && !scope.skipPagination {
		maps.Copy(params, behaviors.Pagination.BuildPaginationQuery(state.CurrentPage, state.PerPage))
	}
	if behaviors.Search != nil {
		maps.Copy(params, behaviors.Search.BuildSearchQuery(state.Search))
	}
	if behaviors.Filter != nil {
		maps.Copy(params, behaviors.Filter.BuildFilterQuery(state.Filters))
	}
	if behaviors.Sort != nil {
		maps.Copy(params, behaviors.Sort.BuildSortQuery(state.Sort))
	}
	if behaviors.ColumnVisibility != nil {
		maps.Copy(params, behaviors.ColumnVisibility.BuildColumnsQuery(state.VisibleColumns()))
	}
	if state.ViewMode == ViewGrouped && cfg.GroupBy != "" {
		params["view_mode"] = string(ViewGrouped)
		params["group_by"] = cfg.GroupBy
	}
	return params
}

func joinQuery(endpoint, query string) string {
	if query == "" {
		return endpoint
	}
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + query
	}
	return endpoint + "?" + query
}

// BuildQueryParams returns the outbound parameters for the current state.
func (g *Grid) BuildQueryParams() QueryParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return buildQueryParams(g.cfg, g.behaviors, g.state, queryScope{})
}

// BuildQueryString returns BuildQueryParams encoded with sorted keys.
func (g *Grid) BuildQueryString() string {
	return g.BuildQueryParams().Encode()
}

// BuildAPIURL returns the GET URL Refresh would request.
func (g *Grid) BuildAPIURL() string {
	return joinQuery(g.cfg.APIEndpoint, g.BuildQueryString())
}
