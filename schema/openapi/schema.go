package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	datagrid "github.com/goliatone/go-datagrid"
)

var enumValues = map[reflect.Type][]string{
	reflect.TypeOf(datagrid.ViewFlat):       {string(datagrid.ViewFlat), string(datagrid.ViewGrouped)},
	reflect.TypeOf(datagrid.ExpandExplicit): {string(datagrid.ExpandExplicit), string(datagrid.ExpandAllExpanded), string(datagrid.ExpandAllCollapsed)},
	reflect.TypeOf(datagrid.SortAsc):        {string(datagrid.SortAsc), string(datagrid.SortDesc)},
}

// SchemaOf returns the JSON schema of the type of value, following json tags.
func SchemaOf(value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{"type": "null"}, nil
	}
	return buildSchema(reflect.TypeOf(value))
}

func buildSchema(rt reflect.Type) (map[string]any, error) {
	nullable := false
	for rt.Kind() == reflect.Pointer {
		nullable = true
		rt = rt.Elem()
	}
	schema, err := schemaForType(rt)
	if err != nil {
		return nil, err
	}
	if nullable {
		schema["nullable"] = true
	}
	return schema, nil
}

func schemaForType(rt reflect.Type) (map[string]any, error) {
	if values, ok := enumValues[rt]; ok {
		return map[string]any{"type": "string", "enum": values}, nil
	}

	switch rt.Kind() {
	case reflect.Interface:
		return map[string]any{}, nil
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rt == reflect.TypeOf(time.Time{}) {
			return map[string]any{
				"type":   "string",
				"format": "date-time",
			}, nil
		}
		return schemaForStruct(rt)
	case reflect.Map:
		return schemaForMap(rt)
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rt)
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", rt.String()),
		}, nil
	}
}

func schemaForMap(rt reflect.Type) (map[string]any, error) {
	if rt.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rt.Key())
	}
	values, err := buildSchema(rt.Elem())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": values,
	}, nil
}

func schemaForStruct(rt reflect.Type) (map[string]any, error) {
	properties := map[string]any{}
	names := make([]string, 0, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		child, err := buildSchema(field.Type)
		if err != nil {
			return nil, fmt.Errorf("openapi: field %s.%s: %w", rt.Name(), field.Name, err)
		}
		properties[name] = child
		names = append(names, name)
	}

	sort.Strings(names)
	ordered := make(map[string]any, len(properties))
	for _, name := range names {
		ordered[name] = properties[name]
	}
	return map[string]any{
		"type":       "object",
		"properties": ordered,
	}, nil
}

func schemaForSlice(rt reflect.Type) (map[string]any, error) {
	if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
		return map[string]any{
			"type":   "string",
			"format": "byte",
		}, nil
	}
	items, err := buildSchema(rt.Elem())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "array",
		"items": items,
	}, nil
}
