package a2ui

import (
	"maps"
	"math"
	"slices"
	"strings"

	"widgetgen/internal/ui"
)

// RenderFunc renders one component. Returning false renders nothing.
type RenderFunc func(s *Scope, c Component) (ui.Node, bool)

// Catalog maps component tags to render functions. It is built once at
// startup and read-only afterwards; layering a catalog over another
// replaces entries by tag.
type Catalog struct {
	entries  map[string]RenderFunc
	fallback RenderFunc
}

func NewCatalog() *Catalog {
	return &Catalog{
		entries:  make(map[string]RenderFunc),
		fallback: renderPassThrough,
	}
}

// Register adds or replaces the render function for tag.
func (c *Catalog) Register(tag string, fn RenderFunc) *Catalog {
	tag = strings.TrimSpace(tag)
	if tag == "" || fn == nil {
		return c
	}
	c.entries[tag] = fn
	return c
}

// Extend returns a copy of c with overrides applied on top.
func (c *Catalog) Extend(overrides map[string]RenderFunc) *Catalog {
	out := &Catalog{entries: maps.Clone(c.entries), fallback: c.fallback}
	for tag, fn := range overrides {
		out.Register(tag, fn)
	}
	return out
}

func (c *Catalog) Lookup(tag string) (RenderFunc, bool) {
	fn, ok := c.entries[tag]
	return fn, ok
}

// Tags lists registered tags in sorted order.
func (c *Catalog) Tags() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// StandardCatalog is the base component set of the widget protocol.
func StandardCatalog() *Catalog {
	return NewCatalog().
		Register(string(KindContainer), renderContainer("container", 0)).
		Register(string(KindColumn), renderStack(ui.DirectionColumn)).
		Register(string(KindRow), renderStack(ui.DirectionRow)).
		Register(string(KindStack), renderStack("")).
		Register(string(KindGrid), renderGrid).
		Register(string(KindText), renderText(false)).
		Register(string(KindBadge), renderBadge).
		Register(string(KindDivider), renderDivider).
		Register(string(KindImage), renderImage).
		Register(string(KindIcon), renderIcon).
		Register(string(KindChart), renderChart)
}

// DefaultCatalog layers the richer component set used by the preview on top
// of StandardCatalog.
func DefaultCatalog() *Catalog {
	return StandardCatalog().Extend(map[string]RenderFunc{
		string(KindText):             renderText(true),
		string(KindBox):              renderContainer("box", 0),
		string(KindPaper):            renderContainer("paper", 1),
		string(KindCard):             renderContainer("card", 2),
		string(KindList):             renderList,
		string(KindGridContainer):    renderGridContainer,
		string(KindGridItem):         renderGridItem,
		string(KindChip):             renderBadge,
		string(KindLinearProgress):   renderProgress(false),
		string(KindCircularProgress): renderProgress(true),
		string(KindLineChart):        renderSpecChart(ui.ChartTypeLine, 120),
		string(KindBarChart):         renderSpecChart(ui.ChartTypeBar, 140),
		string(KindPieChart):         renderSpecChart(ui.ChartTypePie, 200),
	})
}

// renderPassThrough keeps the children of components whose kind is not in
// the catalog.
func renderPassThrough(s *Scope, c Component) (ui.Node, bool) {
	return ui.BuildContainerNode(c.ID, c.Tag, "", styleOf(c.Props), s.Children(c)), true
}

func renderContainer(variant string, defaultElevation int) RenderFunc {
	return func(s *Scope, c Component) (ui.Node, bool) {
		node := ui.BuildContainerNode(c.ID, c.Tag, variant, styleOf(c.Props), s.Children(c))
		node.Layout.Elevation = defaultElevation
		if e, ok := numberProp(s, c.Props, "elevation"); ok {
			node.Layout.Elevation = int(e)
		}
		applyAlignment(node.Layout, c.Props)
		return node, true
	}
}

func renderStack(fixed ui.Direction) RenderFunc {
	return func(s *Scope, c Component) (ui.Node, bool) {
		dir := fixed
		if dir == "" {
			dir = parseDirection(c.Props["direction"])
		}
		gap := firstNumber(s, c.Props, 0, "gap", "spacing")
		node := ui.BuildStackNode(c.ID, c.Tag, dir, gap, styleOf(c.Props), s.Children(c))
		applyAlignment(node.Layout, c.Props)
		return node, true
	}
}

func renderList(s *Scope, c Component) (ui.Node, bool) {
	dir := parseDirection(c.Props["direction"])
	gap := firstNumber(s, c.Props, 1, "spacing", "gap")
	return ui.BuildStackNode(c.ID, c.Tag, dir, gap, styleOf(c.Props), s.Children(c)), true
}

func renderGrid(s *Scope, c Component) (ui.Node, bool) {
	columns := firstNumber(s, c.Props, 2, "columns", "columnCount")
	gap := firstNumber(s, c.Props, 8, "gap")
	node := ui.BuildGridNode(c.ID, c.Tag, int(columns), gap, styleOf(c.Props), s.Children(c))
	applyAlignment(node.Layout, c.Props)
	return node, true
}

func renderGridContainer(s *Scope, c Component) (ui.Node, bool) {
	gap := firstNumber(s, c.Props, 1, "spacing", "gap")
	return ui.BuildGridNode(c.ID, c.Tag, 12, gap, styleOf(c.Props), s.Children(c)), true
}

func renderGridItem(s *Scope, c Component) (ui.Node, bool) {
	node := ui.BuildContainerNode(c.ID, c.Tag, "grid_item", styleOf(c.Props), s.Children(c))
	for _, bp := range []string{"xs", "sm", "md"} {
		if v, ok := numberProp(s, c.Props, bp); ok {
			if node.Layout.Span == nil {
				node.Layout.Span = make(map[string]float64, 3)
			}
			node.Layout.Span[bp] = v
		}
	}
	return node, true
}

var usageHintVariants = map[string]string{
	"h1":      "h3",
	"h2":      "h4",
	"h3":      "h5",
	"h4":      "h6",
	"h5":      "subtitle1",
	"caption": "caption",
	"body":    "body1",
}

func renderText(withHints bool) RenderFunc {
	return func(s *Scope, c Component) (ui.Node, bool) {
		var text string
		if raw, ok := c.Props["text"]; ok {
			text = ResolveString(raw, s.Model())
		} else {
			// Payloads like {"Text": {"literalString": "x"}} bind the text directly.
			text = ResolveString(c.Props, s.Model())
		}
		variant := ""
		if withHints {
			hint, _ := c.Props["usageHint"].(string)
			if hint == "" {
				hint = "body"
			}
			variant = usageHintVariants[hint]
			if variant == "" {
				variant = "body1"
			}
			prefix, _ := c.Props["prefix"].(string)
			suffix, _ := c.Props["suffix"].(string)
			text = prefix + text + suffix
		}
		return ui.BuildTextNode(c.ID, c.Tag, text, variant, styleOf(c.Props)), true
	}
}

func renderBadge(s *Scope, c Component) (ui.Node, bool) {
	raw, ok := c.Props["text"]
	if !ok || raw == nil {
		raw = c.Props["label"]
	}
	return ui.BuildBadgeNode(c.ID, c.Tag, ResolveString(raw, s.Model()), styleOf(c.Props)), true
}

func renderDivider(_ *Scope, c Component) (ui.Node, bool) {
	axis := ui.AxisHorizontal
	if a, _ := c.Props["axis"].(string); a == string(ui.AxisVertical) {
		axis = ui.AxisVertical
	}
	return ui.BuildDividerNode(c.ID, c.Tag, axis, styleOf(c.Props)), true
}

func renderImage(s *Scope, c Component) (ui.Node, bool) {
	raw, ok := c.Props["src"]
	if !ok || raw == nil {
		raw = c.Props["url"]
	}
	src := ResolveString(raw, s.Model())
	alt := ResolveString(c.Props["alt"], s.Model())
	node := ui.BuildImageNode(c.ID, c.Tag, src, alt, styleOf(c.Props))
	node.Image.Rounded = ResolveBool(c.Props["rounded"], s.Model())
	return node, true
}

func renderIcon(s *Scope, c Component) (ui.Node, bool) {
	name := ResolveString(c.Props["name"], s.Model())
	if !IsKnownIcon(name) {
		s.Report(c.ID, IssueUnknownIcon, "unknown icon %q", name)
		return ui.Node{}, false
	}
	return ui.BuildIconNode(c.ID, c.Tag, name, styleOf(c.Props)), true
}

func renderProgress(circular bool) RenderFunc {
	return func(s *Scope, c Component) (ui.Node, bool) {
		var value *float64
		if v, ok := ResolveNumber(c.Props["value"], s.Model()); ok {
			value = &v
		}
		variant, _ := c.Props["variant"].(string)
		if variant == "" {
			variant = "determinate"
		}
		if circular {
			variant = "determinate"
		}
		return ui.BuildProgressNode(c.ID, c.Tag, value, variant, circular, styleOf(c.Props)), true
	}
}

func parseDirection(v any) ui.Direction {
	d, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "row", "horizontal", "row-reverse":
		return ui.DirectionRow
	default:
		return ui.DirectionColumn
	}
}

func applyAlignment(l *ui.LayoutState, props map[string]any) {
	if l == nil {
		return
	}
	for _, key := range []string{"align", "alignItems"} {
		if v, ok := props[key].(string); ok && v != "" {
			l.Align = v
			break
		}
	}
	for _, key := range []string{"justify", "justifyContent"} {
		if v, ok := props[key].(string); ok && v != "" {
			l.Justify = v
			break
		}
	}
}

func numberProp(s *Scope, props map[string]any, key string) (float64, bool) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return 0, false
	}
	v, ok := ResolveNumber(raw, s.Model())
	if !ok || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func firstNumber(s *Scope, props map[string]any, def float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := numberProp(s, props, key); ok {
			return v
		}
	}
	return def
}
