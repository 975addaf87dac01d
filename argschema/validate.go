package argschema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Validate checks value against s and returns every violation found. path
// names the location of value within the enclosing payload and is empty at
// the root. A nil or empty result means value conforms.
func Validate(s Schema, value any, path string) []string {
	var errs []string
	validate(s, value, path, &errs)
	return errs
}

func validate(s Schema, value any, path string, errs *[]string) {
	switch s := s.(type) {
	case *Object:
		m, ok := asMap(value)
		if !ok {
			if path == "" {
				*errs = append(*errs, "Arguments must be an object")
			} else {
				*errs = append(*errs, fmt.Sprintf("Expected object for %s, got %s", path, KindOf(value)))
			}
			return
		}
		for _, name := range s.Required {
			if _, present := m[name]; present {
				continue
			}
			if path == "" {
				*errs = append(*errs, "Missing required param :"+name)
			} else {
				*errs = append(*errs, fmt.Sprintf("Missing required param %s.%s", path, name))
			}
		}
		for _, p := range s.Properties {
			v, present := m[p.Name]
			if !present {
				continue
			}
			validate(p.Schema, v, join(path, p.Name), errs)
		}

	case *Array:
		items, ok := asSlice(value)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("Expected array for %s, got %s", path, KindOf(value)))
			return
		}
		if s.Items == nil {
			return
		}
		for i, item := range items {
			validate(s.Items, item, fmt.Sprintf("%s[%d]", path, i), errs)
		}

	case *Primitive:
		if !matches(s.Kind, value) {
			*errs = append(*errs, fmt.Sprintf("Expected %s for %s, got %s", s.Kind, path, KindOf(value)))
		}
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func matches(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindInteger:
		return isInteger(v)
	case KindNumber:
		_, ok := toFloat(v)
		return ok
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && isWhole(f)
	case float32:
		return isWhole(float64(n))
	case float64:
		return isWhole(n)
	}
	return isGoInt(v)
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

func isGoInt(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if isGoInt(v) {
		return reflect.ValueOf(v).Convert(reflect.TypeOf(float64(0))).Float(), true
	}
	return 0, false
}

// KindOf names the runtime kind of a decoded JSON value as it appears in
// validation messages.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "Nil"
	case string:
		return "String"
	case bool:
		return "Boolean"
	}
	if isInteger(v) {
		return "Integer"
	}
	if _, ok := toFloat(v); ok {
		return "Float"
	}
	if _, ok := asMap(v); ok {
		return "Object"
	}
	if _, ok := asSlice(v); ok {
		return "Array"
	}
	return fmt.Sprintf("%T", v)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case nil, []byte, json.RawMessage:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
