package layering

import (
	"reflect"
	"strings"
)

// Provenance records, per patch field, which level supplied the merged value.
// Keys use the field's json name when tagged, the Go field name otherwise.
type Provenance map[string]Level

// Source reports the level that supplied field, or LevelUnknown.
func (p Provenance) Source(field string) Level {
	if p == nil {
		return LevelUnknown
	}
	return p[field]
}

// Has reports whether field was supplied by level.
func (p Provenance) Has(field string, level Level) bool {
	return p.Source(field) == level
}

// Merge composes patch structs ordered by precedence. A field is taken from
// the strongest layer where it is "present": non-nil for pointers, slices,
// maps and interfaces, non-zero for every other kind. An empty but non-nil
// slice is present, so it overrides weaker layers.
func Merge[T any](layers ...Layer[T]) (T, Provenance) {
	var zero T
	ordered := Order(layers...)
	prov := Provenance{}
	if len(ordered) == 0 {
		return zero, prov
	}

	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		// Non-struct patches are all-or-nothing.
		for _, layer := range ordered {
			if present(reflect.ValueOf(layer.Patch)) {
				return Clone(layer.Patch), prov
			}
		}
		return zero, prov
	}

	result := reflect.New(typ).Elem()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		for _, layer := range ordered {
			value := reflect.ValueOf(layer.Patch).Field(i)
			if !present(value) {
				continue
			}
			result.Field(i).Set(cloneValue(value))
			prov[fieldName(field)] = layer.Level
			break
		}
	}
	return result.Interface().(T), prov
}

// Clone returns a deep copy of value.
func Clone[T any](value T) T {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return value
	}
	cloned := cloneValue(v)
	out := reflect.New(v.Type()).Elem()
	out.Set(cloned)
	return out.Interface().(T)
}

func present(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return !v.IsNil()
	default:
		return !v.IsZero()
	}
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
