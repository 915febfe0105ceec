package audit

import (
	"reflect"
	"strconv"
	"strings"
)

// lookup walks a dotted path into an arbitrary value. A segment that parses
// as a non-negative integer indexes the current value when it is a slice or
// array; against anything else it is treated as a map key / field name.
// Missing intermediate segments short-circuit to (nil, false) instead of
// failing.
func lookup(v any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(v any, seg string) (any, bool) {
	if v == nil {
		return nil, false
	}

	// Fast path for decoded JSON.
	if m, ok := v.(map[string]any); ok {
		val, ok := m[seg]
		return val, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true

	case reflect.Struct:
		return structField(rv, seg)
	}
	return nil, false
}

// structField matches a segment against an exported field by exact name,
// json tag, or case-insensitive name, in that order.
func structField(rv reflect.Value, seg string) (any, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(seg); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	var fold *reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName(f) == seg {
			return rv.Field(i).Interface(), true
		}
		if fold == nil && strings.EqualFold(f.Name, seg) {
			fc := f
			fold = &fc
		}
	}
	if fold != nil {
		return rv.FieldByIndex(fold.Index).Interface(), true
	}
	return nil, false
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
