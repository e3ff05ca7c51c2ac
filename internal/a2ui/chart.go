package a2ui

import (
	"encoding/json"
	"math"
	"strconv"

	"widgetgen/internal/ui"
)

// Chart diagnostics shown inline in place of a malformed chart.
const (
	ChartDataMissingMessage = "Chart data missing"
	ChartUnsupportedMessage = "Unsupported chartType"
)

func chartKeysMessage(chartType string) string {
	name := "Bar"
	if chartType == string(ui.ChartTypePie) {
		name = "Pie"
	}
	return name + " chart requires labelKey and valueKey"
}

// isFalsy reports the JSON values a data binding treats as absent: null,
// false, 0, NaN and the empty string.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case int:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	return false
}

// renderChart handles the generic Chart kind:
//
//	chartType: "line" | "bar" | "pie"
//	data:      {path} to an array (numbers for line, objects for bar/pie)
//	xLabels:   optional {path} to line axis labels
//	labelKey/valueKey: field names projected from bar/pie items
//	colors:    optional color list
func renderChart(s *Scope, c Component) (ui.Node, bool) {
	chartType, _ := c.Props["chartType"].(string)
	rawData, found := chartSource(c.Props["data"], s.Model())
	if !found || isFalsy(rawData) {
		s.Report(c.ID, IssueChartDataMissing, "%s", ChartDataMissingMessage)
		return ui.BuildErrorNode(c.ID, c.Tag, ChartDataMissingMessage), true
	}
	items, _ := rawData.([]any)
	colors := stringList(c.Props["colors"])
	style := styleOf(c.Props)

	switch ui.ChartType(chartType) {
	case ui.ChartTypeLine:
		values := make([]*float64, len(items))
		for i, item := range items {
			values[i] = numberPtr(item)
		}
		var labels []string
		if rawLabels, ok := chartSource(c.Props["xLabels"], s.Model()); ok {
			if list, ok := rawLabels.([]any); ok {
				labels = make([]string, len(list))
				for i, l := range list {
					labels[i] = FormatValue(l)
				}
			}
		}
		if labels == nil {
			labels = make([]string, len(items))
			for i := range items {
				labels[i] = strconv.Itoa(i + 1)
			}
		}
		return ui.BuildChartNode(c.ID, c.Tag, ui.ChartState{
			Type:   ui.ChartTypeLine,
			Height: firstNumber(s, c.Props, 160, "height"),
			Labels: labels,
			Values: values,
			Colors: firstColor(colors),
		}, style), true

	case ui.ChartTypeBar, ui.ChartTypePie:
		labelKey, _ := c.Props["labelKey"].(string)
		valueKey, _ := c.Props["valueKey"].(string)
		if labelKey == "" || valueKey == "" {
			msg := chartKeysMessage(chartType)
			s.Report(c.ID, IssueChartKeysMissing, "%s", msg)
			return ui.BuildErrorNode(c.ID, c.Tag, msg), true
		}
		labels := make([]string, len(items))
		values := make([]*float64, len(items))
		for i, item := range items {
			obj, _ := item.(map[string]any)
			labels[i] = FormatValue(obj[labelKey])
			if v, ok := obj[valueKey]; ok {
				values[i] = numberPtr(v)
			}
		}
		state := ui.ChartState{
			Type:   ui.ChartType(chartType),
			Height: firstNumber(s, c.Props, 180, "height"),
		}
		if state.Type == ui.ChartTypeBar {
			state.Labels = labels
			state.Values = values
			state.Colors = firstColor(colors)
		} else {
			state.Slices = make([]ui.ChartSlice, len(items))
			for i := range items {
				slice := ui.ChartSlice{Label: labels[i], Value: values[i]}
				if i < len(colors) {
					slice.Color = colors[i]
				}
				state.Slices[i] = slice
			}
		}
		return ui.BuildChartNode(c.ID, c.Tag, state, style), true
	}

	s.Report(c.ID, IssueChartUnsupported, "unsupported chartType %q", chartType)
	return ui.BuildErrorNode(c.ID, c.Tag, ChartUnsupportedMessage), true
}

// chartSource resolves a chart data reference: a {path} binding, or an
// inline array.
func chartSource(v any, model any) (any, bool) {
	switch x := v.(type) {
	case map[string]any:
		p, ok := x["path"].(string)
		if !ok {
			return nil, false
		}
		return Resolve(p, model)
	case []any:
		return x, true
	}
	return nil, false
}

// renderSpecChart handles LineChart/BarChart/PieChart, whose series and axis
// configuration is passed through with {path} references resolved.
func renderSpecChart(chartType ui.ChartType, defaultHeight float64) RenderFunc {
	return func(s *Scope, c Component) (ui.Node, bool) {
		spec := map[string]any{}
		series, _ := ResolvePathRefs(c.Props["series"], s.Model()).([]any)
		if series == nil {
			series = []any{}
		}
		spec["series"] = series
		if chartType != ui.ChartTypePie {
			xAxis := ResolvePathRefs(c.Props["xAxis"], s.Model())
			if xAxis == nil && chartType == ui.ChartTypeLine {
				xAxis = autoXAxis(series)
			}
			if xAxis != nil {
				spec["xAxis"] = xAxis
			}
			if yAxis := ResolvePathRefs(c.Props["yAxis"], s.Model()); yAxis != nil {
				spec["yAxis"] = yAxis
			}
		}
		if margin, ok := c.Props["margin"]; ok {
			spec["margin"] = margin
		}
		return ui.BuildChartNode(c.ID, c.Tag, ui.ChartState{
			Type:   chartType,
			Height: firstNumber(s, c.Props, defaultHeight, "height"),
			Spec:   spec,
		}, styleOf(c.Props)), true
	}
}

// ResolvePathRefs copies a value tree, replacing every object of the exact
// form {"path": "/..."} with the data it points at (nil when absent).
func ResolvePathRefs(v any, model any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = ResolvePathRefs(x[i], model)
		}
		return out
	case map[string]any:
		if p, ok := x["path"].(string); ok && len(x) == 1 {
			return ResolveValue(p, model)
		}
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = ResolvePathRefs(vv, model)
		}
		return out
	default:
		return v
	}
}

func autoXAxis(series []any) any {
	if len(series) == 0 {
		return nil
	}
	first, _ := series[0].(map[string]any)
	data, ok := first["data"].([]any)
	if !ok {
		return nil
	}
	idx := make([]any, len(data))
	for i := range data {
		idx[i] = float64(i)
	}
	return []any{map[string]any{"data": idx, "hide": true}}
}

func numberPtr(v any) *float64 {
	if v == nil {
		return nil
	}
	f, ok := ToNumber(v)
	if !ok {
		return nil
	}
	return &f
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstColor(colors []string) []string {
	if len(colors) == 0 {
		return nil
	}
	return colors[:1]
}
