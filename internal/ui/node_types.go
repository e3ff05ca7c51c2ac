package ui

type NodeType string

const (
	NodeTypeContainer NodeType = "container"
	NodeTypeStack     NodeType = "stack"
	NodeTypeGrid      NodeType = "grid"
	NodeTypeText      NodeType = "text"
	NodeTypeBadge     NodeType = "badge"
	NodeTypeDivider   NodeType = "divider"
	NodeTypeImage     NodeType = "image"
	NodeTypeIcon      NodeType = "icon"
	NodeTypeChart     NodeType = "chart"
	NodeTypeProgress  NodeType = "progress"
	NodeTypeError     NodeType = "error"
)

type Direction string

const (
	DirectionColumn Direction = "column"
	DirectionRow    Direction = "row"
)

type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

type LayoutState struct {
	// Variant names the source flavor of a container: box, paper, card, grid_item.
	Variant   string
	Direction Direction
	Gap       float64
	Columns   int
	Align     string
	Justify   string
	Elevation int
	Span      map[string]float64
}

type TextState struct {
	Text    string
	Variant string
}

type DividerState struct {
	Axis Axis
}

type ImageState struct {
	Src     string
	Alt     string
	Rounded bool
}

type IconState struct {
	Name string
}

type ChartType string

const (
	ChartTypeLine ChartType = "line"
	ChartTypeBar  ChartType = "bar"
	ChartTypePie  ChartType = "pie"
)

type ChartSlice struct {
	Label string
	Value *float64
	Color string
}

type ChartState struct {
	Type   ChartType
	Height float64
	Labels []string
	// Values holds one entry per label; nil marks a non-numeric point.
	Values []*float64
	Slices []ChartSlice
	Colors []string
	// Spec carries the resolved series/axis configuration of the catalog chart kinds.
	Spec map[string]any
}

type ProgressState struct {
	Value    *float64
	Variant  string
	Circular bool
}

type ErrorState struct {
	Message string
}

// Node is one element of a rendered widget tree. Exactly one state pointer
// matching Type is populated; containers carry Layout and Children.
type Node struct {
	ID       string
	Type     NodeType
	Kind     string
	Style    map[string]any
	Children []Node

	Layout   *LayoutState
	Text     *TextState
	Divider  *DividerState
	Image    *ImageState
	Icon     *IconState
	Chart    *ChartState
	Progress *ProgressState
	Error    *ErrorState
}

// Walk visits n and its descendants depth-first, stopping early when fn
// returns false.
func (n Node) Walk(fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Diagnostics returns the messages of every error node in the tree.
func (n Node) Diagnostics() []string {
	var out []string
	n.Walk(func(c Node) bool {
		if c.Type == NodeTypeError && c.Error != nil {
			out = append(out, c.Error.Message)
		}
		return true
	})
	return out
}
