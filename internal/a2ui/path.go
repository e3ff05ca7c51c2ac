package a2ui

import (
	"reflect"
	"strconv"
	"strings"
)

// Resolve looks up a JSON-Pointer-like path in a data model. It reports
// false when the path is empty, does not start with "/", or walks through a
// missing or non-indexable node. A present null yields (nil, true).
func Resolve(path string, model any) (any, bool) {
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil, false
	}
	cur := model
	for _, raw := range strings.Split(path[1:], "/") {
		next, ok := lookup(cur, unescapeSegment(raw))
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ResolveValue is Resolve without the presence flag.
func ResolveValue(path string, model any) any {
	v, _ := Resolve(path, model)
	return v
}

func unescapeSegment(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

func lookup(node any, key string) (any, bool) {
	switch x := node.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := x[key]
		return v, ok
	case []any:
		i, ok := arrayIndex(key, len(x))
		if !ok {
			return nil, false
		}
		return x[i], true
	case map[string]string:
		v, ok := x[key]
		return v, ok
	case []map[string]any:
		i, ok := arrayIndex(key, len(x))
		if !ok {
			return nil, false
		}
		return x[i], true
	}
	return lookupReflect(node, key)
}

func lookupReflect(node any, key string) (any, bool) {
	rv := reflect.ValueOf(node)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := arrayIndex(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// arrayIndex accepts only canonical non-negative decimal indices ("0", "12").
func arrayIndex(key string, n int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= n || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}
