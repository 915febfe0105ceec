package audit

import (
	"fmt"
	"reflect"
	"strconv"
)

// presentID reports whether a resolved id value actually carries an id.
// Nil and typed-nil pointers both mean "no id available": prior capture is
// skipped and the stored resource id stays NULL rather than becoming a
// literal "null" string.
func presentID(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	return rv.Interface(), true
}

// idString normalizes any resolved id to its string form for storage.
// Numeric and string forms of the same logical id normalize to the same
// value, so adapters comparing snapshots never see "1" vs 1 mismatches.
func idString(v any) (string, bool) {
	v, ok := presentID(v)
	if !ok {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, true
	case fmt.Stringer:
		return id.String(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.String:
		return rv.String(), true
	}
	return fmt.Sprintf("%v", v), true
}

// idSet expands a resolved id into a normalized set of id strings. A slice
// or array contributes one entry per non-nil element; anything else is a
// single-element set. Duplicates are collapsed, order preserved.
func idSet(v any) []string {
	v, ok := presentID(v)
	if !ok {
		return nil
	}
	// Stringer array types (uuid.UUID is [16]byte) are scalar ids, not sets.
	switch v.(type) {
	case string, fmt.Stringer, []byte:
		s, ok := idString(v)
		if !ok {
			return nil
		}
		return []string{s}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		s, ok := idString(v)
		if !ok {
			return nil
		}
		return []string{s}
	}
	seen := make(map[string]struct{}, rv.Len())
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, ok := idString(rv.Index(i).Interface())
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
