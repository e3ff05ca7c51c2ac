package ui

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToMap converts a node tree into plain JSON-compatible values using the
// wire field names the preview client expects.
func ToMap(node Node) map[string]any {
	out := map[string]any{
		"id":   node.ID,
		"type": string(node.Type),
	}
	if node.Kind != "" {
		out["kind"] = node.Kind
	}
	if len(node.Style) > 0 {
		out["style"] = toWireValue(node.Style)
	}
	if node.Layout != nil {
		out["layout"] = layoutToMap(node.Layout)
	}
	if node.Text != nil {
		out["text"] = map[string]any{"text": node.Text.Text, "variant": node.Text.Variant}
	}
	if node.Divider != nil {
		out["divider"] = map[string]any{"axis": string(node.Divider.Axis)}
	}
	if node.Image != nil {
		out["image"] = map[string]any{"src": node.Image.Src, "alt": node.Image.Alt, "rounded": node.Image.Rounded}
	}
	if node.Icon != nil {
		out["icon"] = map[string]any{"name": node.Icon.Name}
	}
	if node.Chart != nil {
		out["chart"] = chartToMap(node.Chart)
	}
	if node.Progress != nil {
		out["progress"] = map[string]any{
			"value":    floatPtrValue(node.Progress.Value),
			"variant":  node.Progress.Variant,
			"circular": node.Progress.Circular,
		}
	}
	if node.Error != nil {
		out["error"] = map[string]any{"message": node.Error.Message}
	}
	if len(node.Children) > 0 {
		children := make([]any, 0, len(node.Children))
		for _, c := range node.Children {
			children = append(children, ToMap(c))
		}
		out["children"] = children
	}
	return out
}

// ToStruct converts a node tree into a protobuf Struct for RPC responses.
func ToStruct(node Node) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(ToMap(node))
	if err != nil {
		return nil, fmt.Errorf("ui node %q: %w", node.ID, err)
	}
	return s, nil
}

func layoutToMap(l *LayoutState) map[string]any {
	out := map[string]any{}
	if l.Variant != "" {
		out["variant"] = l.Variant
	}
	if l.Direction != "" {
		out["direction"] = string(l.Direction)
	}
	if l.Gap != 0 {
		out["gap"] = l.Gap
	}
	if l.Columns > 0 {
		out["columns"] = float64(l.Columns)
	}
	if l.Align != "" {
		out["align"] = l.Align
	}
	if l.Justify != "" {
		out["justify"] = l.Justify
	}
	if l.Elevation != 0 {
		out["elevation"] = float64(l.Elevation)
	}
	if len(l.Span) > 0 {
		span := make(map[string]any, len(l.Span))
		for k, v := range l.Span {
			span[k] = v
		}
		out["span"] = span
	}
	return out
}

func chartToMap(c *ChartState) map[string]any {
	out := map[string]any{
		"chartType": string(c.Type),
		"height":    c.Height,
	}
	if c.Labels != nil {
		labels := make([]any, 0, len(c.Labels))
		for _, l := range c.Labels {
			labels = append(labels, l)
		}
		out["labels"] = labels
	}
	if c.Values != nil {
		values := make([]any, 0, len(c.Values))
		for _, v := range c.Values {
			values = append(values, floatPtrValue(v))
		}
		out["values"] = values
	}
	if c.Slices != nil {
		slices := make([]any, 0, len(c.Slices))
		for i, s := range c.Slices {
			slices = append(slices, map[string]any{
				"id":    float64(i),
				"label": s.Label,
				"value": floatPtrValue(s.Value),
				"color": s.Color,
			})
		}
		out["slices"] = slices
	}
	if len(c.Colors) > 0 {
		colors := make([]any, 0, len(c.Colors))
		for _, col := range c.Colors {
			colors = append(colors, col)
		}
		out["colors"] = colors
	}
	if c.Spec != nil {
		out["spec"] = toWireValue(c.Spec)
	}
	return out
}

func floatPtrValue(v *float64) any {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return *v
}

// toWireValue normalizes decoded JSON (including json.Number and typed
// slices) into the value set structpb accepts.
func toWireValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		return toWireValue(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	case map[string]any:
		out := make(map[string]any, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = toWireValue(x[k])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = toWireValue(x[i])
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return string(raw)
		}
		return toWireValue(decoded)
	}
}
