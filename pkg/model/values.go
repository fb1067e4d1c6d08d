package model

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// CloneMap deep copies a generic map. A nil input yields nil.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep copies maps and slices found in decoded config values.
// Scalars and unknown types are returned as is.
func CloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return CloneMap(v)
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case []map[string]any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = CloneMap(item)
		}
		return out
	case BlockConfig:
		return v.Clone()
	default:
		return value
	}
}

// Stringify renders a scalar the way trigger conditions compare it: whole
// floats print without a fraction, nil prints as the empty string.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}

// Truthy mirrors loose truthiness: false, zero, empty strings and nil are
// false. Collections are true even when empty.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := numeric(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// IsEmpty reports whether a value counts as missing for required checks:
// nil, blank strings and empty collections.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ToSlice exposes any slice or array value as []any.
func ToSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = item
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = item
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for idx := 0; idx < rv.Len(); idx++ {
		out[idx] = rv.Index(idx).Interface()
	}
	return out, true
}

// ToMapSlice returns the map entries of a list value, skipping anything that
// is not an object.
func ToMapSlice(value any) []map[string]any {
	items, ok := ToSlice(value)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, entry)
		}
	}
	return out
}

// ToInt converts numeric values and integer strings to int. Fractional
// floats are rejected.
func ToInt(value any) (int, bool) {
	if text, ok := value.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		return n, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		if f := rv.Float(); f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(value any) (float64, bool) {
	if text, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		return f, err == nil
	}
	return numeric(value)
}

func numeric(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
