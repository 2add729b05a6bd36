package predicate

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IsEmpty reports whether value counts as "nothing entered": nil, the empty
// string, or an empty collection/object.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case []string:
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

// Normalize maps empty values to nil so optional rules skip them.
func Normalize(value any) any {
	if IsEmpty(value) {
		return nil
	}
	return value
}

// ToFloat converts numeric kinds to float64. Strings are not parsed.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Number converts numeric kinds and numeric strings to float64.
func Number(value any) (float64, bool) {
	if f, ok := ToFloat(value); ok {
		return f, true
	}
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Size measures strings (in runes) and collections.
func Size(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// AsList flattens a value into a list: collections yield their elements, nil
// yields nil, and scalars become a one-element list.
func AsList(value any) []any {
	if value == nil {
		return nil
	}
	if list, ok := value.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{value}
}

// Equal compares values deeply, treating all numeric kinds as comparable
// numbers so JSON float64 and YAML int payloads agree.
func Equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isList(ra) && isList(rb):
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !Equal(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case ra.Kind() == reflect.Map && rb.Kind() == reflect.Map:
		if ra.Len() != rb.Len() {
			return false
		}
		keyed := make(map[string]any, rb.Len())
		for iter := rb.MapRange(); iter.Next(); {
			keyed[mapKey(iter.Key())] = iter.Value().Interface()
		}
		for iter := ra.MapRange(); iter.Next(); {
			other, ok := keyed[mapKey(iter.Key())]
			if !ok || !Equal(iter.Value().Interface(), other) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// mapKey normalises keys so map[string]any and the map[any]any produced by
// some YAML decoders compare equal.
func mapKey(key reflect.Value) string {
	return fmt.Sprint(key.Interface())
}

func isList(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// Truthy follows loose form semantics: booleans as-is, strings unless blank
// or a false-like word ("false", "off", "no", "0"), non-zero numbers, and
// non-empty collections.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "off", "no", "0":
			return false
		}
		return true
	}
	if f, ok := ToFloat(value); ok {
		return f != 0
	}
	return !IsEmpty(value)
}
