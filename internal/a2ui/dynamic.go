package a2ui

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DynamicValue is a schema field that is either a literal baked into the
// schema or a path into the data model. A value with neither is empty.
type DynamicValue struct {
	Literal    any
	HasLiteral bool
	Path       string
}

// ParseDynamic decodes a raw payload field. Bare scalars are literals;
// objects may carry literalString, literalNumber, literalBoolean or path,
// checked in that order.
func ParseDynamic(v any) DynamicValue {
	switch x := v.(type) {
	case nil:
		return DynamicValue{}
	case map[string]any:
		for _, key := range []string{"literalString", "literalNumber", "literalBoolean"} {
			if lit, ok := x[key]; ok && lit != nil {
				return DynamicValue{Literal: lit, HasLiteral: true}
			}
		}
		if p, ok := x["path"].(string); ok && p != "" {
			return DynamicValue{Path: p}
		}
		return DynamicValue{}
	case []any:
		return DynamicValue{}
	default:
		return DynamicValue{Literal: x, HasLiteral: true}
	}
}

// IsEmpty reports whether the value has neither a literal nor a path.
func (d DynamicValue) IsEmpty() bool {
	return !d.HasLiteral && d.Path == ""
}

// Value returns the literal, or the data at Path. The flag is false when
// the value is empty or the path does not resolve.
func (d DynamicValue) Value(model any) (any, bool) {
	if d.HasLiteral {
		return d.Literal, true
	}
	if d.Path == "" {
		return nil, false
	}
	return Resolve(d.Path, model)
}

// ResolveString resolves a dynamic field for display. Missing values and
// nulls become "".
func ResolveString(v any, model any) string {
	val, ok := ParseDynamic(v).Value(model)
	if !ok {
		return ""
	}
	return FormatValue(val)
}

// ResolveNumber resolves a dynamic field in a numeric context. Values that
// cannot be coerced yield (NaN, false).
func ResolveNumber(v any, model any) (float64, bool) {
	val, ok := ParseDynamic(v).Value(model)
	if !ok {
		return math.NaN(), false
	}
	return ToNumber(val)
}

// ResolveBool resolves a dynamic field in a boolean context.
func ResolveBool(v any, model any) bool {
	val, ok := ParseDynamic(v).Value(model)
	if !ok {
		return false
	}
	switch x := val.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	}
	f, ok := ToNumber(val)
	return ok && f != 0
}

// ToNumber coerces a data-model value to a number. Strings are parsed,
// booleans map to 1/0, empty strings and null map to 0.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return math.NaN(), false
		}
		return f, true
	}
	return math.NaN(), false
}

// FormatValue renders a data-model value as display text. Arrays join their
// elements with commas; objects render as compact JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
