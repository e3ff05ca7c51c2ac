package ui

import "strings"

func BuildContainerNode(id, kind, variant string, style map[string]any, children []Node) Node {
	return Node{
		ID:       strings.TrimSpace(id),
		Type:     NodeTypeContainer,
		Kind:     kind,
		Style:    style,
		Children: children,
		Layout:   &LayoutState{Variant: variant},
	}
}

func BuildStackNode(id, kind string, dir Direction, gap float64, style map[string]any, children []Node) Node {
	if dir != DirectionRow {
		dir = DirectionColumn
	}
	return Node{
		ID:       strings.TrimSpace(id),
		Type:     NodeTypeStack,
		Kind:     kind,
		Style:    style,
		Children: children,
		Layout:   &LayoutState{Direction: dir, Gap: gap},
	}
}

func BuildGridNode(id, kind string, columns int, gap float64, style map[string]any, children []Node) Node {
	if columns <= 0 {
		columns = 2
	}
	return Node{
		ID:       strings.TrimSpace(id),
		Type:     NodeTypeGrid,
		Kind:     kind,
		Style:    style,
		Children: children,
		Layout:   &LayoutState{Columns: columns, Gap: gap},
	}
}

func BuildTextNode(id, kind, text, variant string, style map[string]any) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeText,
		Kind:  kind,
		Style: style,
		Text:  &TextState{Text: text, Variant: variant},
	}
}

func BuildBadgeNode(id, kind, label string, style map[string]any) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeBadge,
		Kind:  kind,
		Style: style,
		Text:  &TextState{Text: label},
	}
}

func BuildDividerNode(id, kind string, axis Axis, style map[string]any) Node {
	if axis != AxisVertical {
		axis = AxisHorizontal
	}
	return Node{
		ID:      strings.TrimSpace(id),
		Type:    NodeTypeDivider,
		Kind:    kind,
		Style:   style,
		Divider: &DividerState{Axis: axis},
	}
}

func BuildImageNode(id, kind, src, alt string, style map[string]any) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeImage,
		Kind:  kind,
		Style: style,
		Image: &ImageState{
			Src: strings.TrimSpace(src),
			Alt: strings.TrimSpace(alt),
		},
	}
}

func BuildIconNode(id, kind, name string, style map[string]any) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeIcon,
		Kind:  kind,
		Style: style,
		Icon:  &IconState{Name: name},
	}
}

func BuildChartNode(id, kind string, chart ChartState, style map[string]any) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeChart,
		Kind:  kind,
		Style: style,
		Chart: &chart,
	}
}

func BuildProgressNode(id, kind string, value *float64, variant string, circular bool, style map[string]any) Node {
	return Node{
		ID:       strings.TrimSpace(id),
		Type:     NodeTypeProgress,
		Kind:     kind,
		Style:    style,
		Progress: &ProgressState{Value: value, Variant: variant, Circular: circular},
	}
}

// BuildErrorNode builds an inline diagnostic leaf shown in place of a
// malformed subtree.
func BuildErrorNode(id, kind, message string) Node {
	return Node{
		ID:    strings.TrimSpace(id),
		Type:  NodeTypeError,
		Kind:  kind,
		Error: &ErrorState{Message: strings.TrimSpace(message)},
	}
}
