package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	datagrid "github.com/goliatone/go-datagrid"
)

// Document is a JSON-ready OpenAPI document.
type Document map[string]any

// Describe builds an OpenAPI document for the data endpoint of cfg: the list
// operation with the query parameters the configured behaviors emit, the
// flat and grouped envelopes it must answer with, and the export and bulk
// endpoints. The URL state keys of the grid page are published under
// components.parameters.
func Describe(cfg datagrid.Config, opts ...GeneratorOption) (Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.APIEndpoint = strings.TrimRight(strings.TrimSpace(cfg.APIEndpoint), "/")
	gen := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&gen)
		}
	}
	if gen.operation.OperationID == "" {
		gen.operation.OperationID = "list:" + cfg.PanelID
	}

	builder := documentBuilder{cfg: cfg, gen: gen}
	return builder.build()
}

type documentBuilder struct {
	cfg datagrid.Config
	gen generatorConfig
}

func (b documentBuilder) build() (Document, error) {
	server, path, err := splitEndpoint(b.cfg.APIEndpoint)
	if err != nil {
		return nil, err
	}

	components, err := b.buildComponents()
	if err != nil {
		return nil, err
	}

	paths := map[string]any{
		path: map[string]any{"get": b.listOperation()},
	}
	if exportPath, ok := b.exportPath(); ok {
		paths[exportPath] = map[string]any{"get": b.exportOperation()}
	}
	if b.bulkViaEndpoint() {
		paths[strings.TrimRight(path, "/")+"/bulk/{action}"] = map[string]any{"post": b.bulkOperation()}
	}

	info := map[string]any{
		"title":   b.gen.info.Title,
		"version": b.gen.info.Version,
	}
	if b.gen.info.Description != "" {
		info["description"] = b.gen.info.Description
	}

	doc := Document{
		"openapi":    b.gen.openAPIVersion,
		"info":       info,
		"paths":      paths,
		"components": components,
	}
	if server != "" {
		doc["servers"] = []any{map[string]any{"url": server}}
	}
	return doc, nil
}

func (b documentBuilder) listOperation() map[string]any {
	responses := map[string]any{
		"200": map[string]any{
			"description": "Rows of the requested page",
			"content": map[string]any{
				"application/json": map[string]any{"schema": b.envelopeSchema()},
			},
		},
	}
	if b.cfg.GroupBy != "" {
		responses["501"] = map[string]any{"description": "Grouped view is not implemented; the grid falls back to the flat view"}
	}

	operation := map[string]any{
		"operationId": b.gen.operation.OperationID,
		"parameters":  b.listParameters(),
		"responses":   responses,
	}
	if b.gen.operation.Summary != "" {
		operation["summary"] = b.gen.operation.Summary
	}
	return operation
}

func (b documentBuilder) envelopeSchema() map[string]any {
	flat := ref("FlatEnvelope")
	if b.cfg.GroupBy == "" {
		return flat
	}
	return map[string]any{"oneOf": []any{flat, ref("GroupedEnvelope")}}
}

// listParameters runs every behavior against representative state and
// documents the keys they emit.
func (b documentBuilder) listParameters() []any {
	params := parameterSet{}
	behaviors := b.gen.behaviors

	if behaviors.Pagination != nil {
		perPage := b.cfg.PerPage
		if perPage <= 0 {
			perPage = datagrid.DefaultPerPage
		}
		for key := range behaviors.Pagination.BuildPaginationQuery(1, perPage) {
			params.add(key, "Pagination", map[string]any{"type": "integer", "minimum": 0})
		}
	}
	if behaviors.Search != nil {
		for key := range behaviors.Search.BuildSearchQuery("term") {
			params.add(key, "Free-text search", map[string]any{"type": "string"})
		}
	}
	if behaviors.Sort != nil {
		if sortable := b.sortableFields(); len(sortable) > 0 {
			for key := range behaviors.Sort.BuildSortQuery([]datagrid.SortField{{Field: sortable[0], Direction: datagrid.SortAsc}}) {
				params.add(key, "Sort keys over "+strings.Join(sortable, ", "), map[string]any{"type": "string"})
			}
		}
	}
	if behaviors.Filter != nil {
		for _, column := range b.cfg.Columns {
			filter := datagrid.Filter{Column: column.Field, Operator: "eq", Value: "value"}
			for key := range behaviors.Filter.BuildFilterQuery([]datagrid.Filter{filter}) {
				params.add(key, "Filter on "+column.Field, map[string]any{"type": "string"})
			}
		}
	}
	if behaviors.ColumnVisibility != nil {
		fields := make([]string, 0, len(b.cfg.Columns))
		for _, column := range b.cfg.Columns {
			fields = append(fields, column.Field)
		}
		for key := range behaviors.ColumnVisibility.BuildColumnsQuery(fields) {
			params.add(key, "Visible columns", map[string]any{"type": "string"})
		}
	}
	if b.cfg.GroupBy != "" {
		params.add("view_mode", "Requests grouped rows", map[string]any{"type": "string", "enum": []string{string(datagrid.ViewGrouped)}})
		params.add("group_by", "Grouping field", map[string]any{"type": "string", "enum": []string{b.cfg.GroupBy}})
	}
	return params.list()
}

func (b documentBuilder) sortableFields() []string {
	var fields []string
	for _, column := range b.cfg.Columns {
		if column.Sortable {
			fields = append(fields, column.Field)
		}
	}
	return fields
}

func (b documentBuilder) exportPath() (string, bool) {
	if b.gen.behaviors.Export == nil {
		return "", false
	}
	link, err := b.gen.behaviors.Export.ExportURL(b.cfg.APIEndpoint, b.gen.exportFormats[0], nil)
	if err != nil {
		return "", false
	}
	_, path, err := splitEndpoint(link)
	if err != nil {
		return "", false
	}
	return path, true
}

func (b documentBuilder) exportOperation() map[string]any {
	parameters := append([]any{map[string]any{
		"name":     "format",
		"in":       "query",
		"required": true,
		"schema":   map[string]any{"type": "string", "enum": b.gen.exportFormats},
	}}, b.listParameters()...)
	return map[string]any{
		"operationId": "export:" + b.cfg.PanelID,
		"parameters":  parameters,
		"responses": map[string]any{
			"200": map[string]any{"description": "Export of the current query"},
		},
	}
}

func (b documentBuilder) bulkViaEndpoint() bool {
	switch b.gen.behaviors.BulkAction.(type) {
	case nil, datagrid.TransportBulkAction, *datagrid.TransportBulkAction:
		return true
	}
	return false
}

func (b documentBuilder) bulkOperation() map[string]any {
	return map[string]any{
		"operationId": "bulk:" + b.cfg.PanelID,
		"parameters": []any{map[string]any{
			"name":     "action",
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		}},
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": ref("BulkRequest")},
			},
		},
		"responses": map[string]any{
			"200": map[string]any{"description": "Action applied"},
		},
	}
}

func (b documentBuilder) buildComponents() (map[string]any, error) {
	schemas := map[string]any{}
	for name, value := range map[string]any{
		"Filter":     datagrid.Filter{},
		"SortField":  datagrid.SortField{},
		"Column":     datagrid.Column{},
		"Group":      datagrid.Group{},
		"StatePatch": datagrid.StatePatch{},
		"Snapshot":   datagrid.Snapshot{},
	} {
		schema, err := SchemaOf(value)
		if err != nil {
			return nil, fmt.Errorf("openapi: component %s: %w", name, err)
		}
		schemas[name] = schema
	}

	row := map[string]any{"type": "object", "additionalProperties": map[string]any{}}
	idField := b.cfg.IDField
	if idField == "" {
		idField = datagrid.DefaultIDField
	}
	row["required"] = []string{idField}
	schemas["Row"] = row

	total := map[string]any{"type": "integer", "minimum": 0}
	schemas["FlatEnvelope"] = map[string]any{
		"type":     "object",
		"required": []string{"data"},
		"properties": map[string]any{
			"data":  map[string]any{"type": "array", "items": ref("Row")},
			"total": total,
			"count": total,
			"meta": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total": total,
					"count": total,
				},
			},
		},
	}
	if b.cfg.GroupBy != "" {
		schemas["GroupedEnvelope"] = map[string]any{
			"type":     "object",
			"required": []string{"groups"},
			"properties": map[string]any{
				"groups": map[string]any{"type": "array", "items": ref("Group")},
				"total":  total,
			},
		}
	}
	schemas["BulkRequest"] = map[string]any{
		"type":     "object",
		"required": []string{"ids"},
		"properties": map[string]any{
			"ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}

	return map[string]any{
		"schemas":    schemas,
		"parameters": b.stateParameters(),
	}, nil
}

// stateParameters documents the keys the grid page reads from its own URL.
func (b documentBuilder) stateParameters() map[string]any {
	stateKey := b.cfg.StateKey
	if stateKey == "" {
		stateKey = datagrid.DefaultStateKey
	}
	list := func(items map[string]any) map[string]any {
		return map[string]any{"type": "array", "items": items}
	}
	return map[string]any{
		datagrid.KeySearch:  scalarParam(datagrid.KeySearch, map[string]any{"type": "string"}),
		datagrid.KeyPage:    scalarParam(datagrid.KeyPage, map[string]any{"type": "integer", "minimum": 1}),
		datagrid.KeyPerPage: scalarParam(datagrid.KeyPerPage, map[string]any{"type": "integer", "minimum": 1}),
		datagrid.KeyViewMode: scalarParam(datagrid.KeyViewMode, map[string]any{
			"type": "string",
			"enum": []string{string(datagrid.ViewFlat), string(datagrid.ViewGrouped)},
		}),
		datagrid.KeyFilters:        jsonContent(datagrid.KeyFilters, list(ref("Filter"))),
		datagrid.KeySort:           jsonContent(datagrid.KeySort, list(ref("SortField"))),
		datagrid.KeyHiddenColumns:  jsonContent(datagrid.KeyHiddenColumns, list(map[string]any{"type": "string"})),
		datagrid.KeyExpandedGroups: jsonContent(datagrid.KeyExpandedGroups, list(map[string]any{"type": "string"})),
		stateKey:                   jsonContent(stateKey, ref("StatePatch")),
	}
}

func scalarParam(name string, schema map[string]any) map[string]any {
	return map[string]any{"name": name, "in": "query", "schema": schema}
}

func jsonContent(name string, schema map[string]any) map[string]any {
	return map[string]any{
		"name":    name,
		"in":      "query",
		"content": map[string]any{"application/json": map[string]any{"schema": schema}},
	}
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

type parameterSet map[string]map[string]any

func (s parameterSet) add(name, description string, schema map[string]any) {
	if _, ok := s[name]; ok {
		return
	}
	s[name] = map[string]any{
		"name":        name,
		"in":          "query",
		"description": description,
		"schema":      schema,
	}
}

func (s parameterSet) list() []any {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]any, 0, len(names))
	for _, name := range names {
		out = append(out, s[name])
	}
	return out
}

func splitEndpoint(endpoint string) (server, path string, err error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("openapi: endpoint %q: %w", endpoint, err)
	}
	if parsed.Scheme != "" && parsed.Host != "" {
		server = parsed.Scheme + "://" + parsed.Host
	}
	path = parsed.Path
	if path == "" {
		path = "/"
	}
	return server, path, nil
}
