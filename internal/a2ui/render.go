package a2ui

import (
	"fmt"
	"maps"

	"widgetgen/internal/ui"
)

// MissingRootMessage is the diagnostic emitted when the root id is absent.
const MissingRootMessage = "Missing root component"

// DefaultMaxDepth bounds the descent so that a cyclic or pathological graph
// degrades instead of exhausting the stack.
const DefaultMaxDepth = 64

// DefaultMaxNodes bounds the number of components rendered in one pass. A
// graph that references the same child repeatedly is a DAG, not a cycle, and
// would otherwise expand exponentially with depth.
const DefaultMaxNodes = 5000

// Issue codes recorded for soft render failures.
const (
	IssueMissingRoot      = "missing_root"
	IssueDanglingChild    = "dangling_child"
	IssueCycle            = "cycle"
	IssueMaxDepth         = "max_depth"
	IssueMaxNodes         = "max_nodes"
	IssueUnknownKind      = "unknown_kind"
	IssueUnknownIcon      = "unknown_icon"
	IssueChartDataMissing = "chart_data_missing"
	IssueChartKeysMissing = "chart_keys_missing"
	IssueChartUnsupported = "chart_type_unsupported"
	IssuePanic            = "render_panic"
)

// Issue is a non-fatal problem found while rendering one component.
type Issue struct {
	ComponentID string
	Code        string
	Message     string
}

// Result is a rendered tree plus the soft failures absorbed on the way.
type Result struct {
	Root   ui.Node
	Issues []Issue
}

// Renderer walks a validated schema from its root and produces a ui.Node
// tree. It holds no per-render state and is safe for concurrent use.
type Renderer struct {
	catalog  *Catalog
	maxDepth int
	maxNodes int
}

type Option func(*Renderer)

// WithMaxDepth overrides DefaultMaxDepth. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes. Non-positive values are ignored.
func WithMaxNodes(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxNodes = n
		}
	}
}

// NewRenderer builds a renderer over cat, or over DefaultCatalog when cat is nil.
func NewRenderer(cat *Catalog, opts ...Option) *Renderer {
	if cat == nil {
		cat = DefaultCatalog()
	}
	r := &Renderer{catalog: cat, maxDepth: DefaultMaxDepth, maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = NewRenderer(nil)

// Render renders schema against model with the default catalog.
func Render(schema *Schema, model any) ui.Node {
	return defaultRenderer.Render(schema, model)
}

func (r *Renderer) Render(schema *Schema, model any) ui.Node {
	return r.RenderWithIssues(schema, model).Root
}

// RenderWithIssues renders schema against model. A missing root yields a
// single diagnostic node; every other problem is absorbed at the node where
// it occurs and reported in Result.Issues.
func (r *Renderer) RenderWithIssues(schema *Schema, model any) Result {
	s := &Scope{
		renderer: r,
		index:    schema.Index(),
		model:    model,
		active:   make(map[string]bool),
	}
	root := ""
	if schema != nil {
		root = schema.Root
	}
	entry, ok := s.index[root]
	if !ok {
		s.Report(root, IssueMissingRoot, MissingRootMessage)
		return Result{Root: ui.BuildErrorNode(root, "", MissingRootMessage), Issues: s.issues}
	}
	node, ok := s.RenderID(root)
	if !ok {
		// The root exists but produced nothing (e.g. an unknown icon).
		node = ui.BuildContainerNode(root, entry.Resolve().Tag, "", nil, nil)
	}
	node.Style = withThemeHints(node.Style, schema)
	return Result{Root: node, Issues: s.issues}
}

// withThemeHints adds the schema's primaryColor and font hints to the root
// style. Keys the root declares itself are kept.
func withThemeHints(style map[string]any, schema *Schema) map[string]any {
	hints := map[string]string{
		"primaryColor": schema.PrimaryColor(),
		"fontFamily":   schema.Font(),
	}
	for key, v := range hints {
		if v == "" {
			continue
		}
		if _, ok := style[key]; ok {
			continue
		}
		if style == nil {
			style = make(map[string]any, len(hints))
		}
		style[key] = v
	}
	return style
}

// Scope is the state of a single render pass. RenderFuncs use it to reach
// the data model and to render child references.
type Scope struct {
	renderer *Renderer
	index    map[string]ComponentEntry
	model    any
	active   map[string]bool
	depth    int
	nodes    int
	// exhausted is set once the node budget is spent; later ids render nothing.
	exhausted bool
	issues    []Issue
}

// Model returns the data model bound to this render pass.
func (s *Scope) Model() any { return s.model }

// Report records a soft failure for componentID.
func (s *Scope) Report(componentID, code, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.issues = append(s.issues, Issue{ComponentID: componentID, Code: code, Message: msg})
}

// Children renders every child reference of c in declaration order,
// omitting references that render nothing.
func (s *Scope) Children(c Component) []ui.Node {
	ids := ChildIDs(c.Props)
	if len(ids) == 0 {
		return nil
	}
	out := make([]ui.Node, 0, len(ids))
	for _, id := range ids {
		if node, ok := s.RenderID(id); ok {
			out = append(out, node)
		}
	}
	return out
}

// RenderID renders the component with the given id. It reports false for
// dangling ids, revisits of a component already on the current descent
// path, descents beyond the depth limit and anything past the node budget.
func (s *Scope) RenderID(id string) (node ui.Node, ok bool) {
	if s.exhausted {
		return ui.Node{}, false
	}
	entry, found := s.index[id]
	if !found {
		s.Report(id, IssueDanglingChild, "component %q not found", id)
		return ui.Node{}, false
	}
	if s.active[id] {
		s.Report(id, IssueCycle, "component %q references itself through its descendants", id)
		return ui.Node{}, false
	}
	if s.depth >= s.renderer.maxDepth {
		s.Report(id, IssueMaxDepth, "component %q exceeds max depth %d", id, s.renderer.maxDepth)
		return ui.Node{}, false
	}
	if s.nodes >= s.renderer.maxNodes {
		s.exhausted = true
		s.Report(id, IssueMaxNodes, "render stopped at component %q after %d components", id, s.renderer.maxNodes)
		return ui.Node{}, false
	}
	s.nodes++

	c := entry.Resolve()
	fn, registered := s.renderer.catalog.Lookup(c.Tag)
	if !registered {
		s.Report(id, IssueUnknownKind, "unknown component kind %q", c.Tag)
		fn = s.renderer.catalog.fallback
	}

	s.active[id] = true
	s.depth++
	defer func() {
		s.depth--
		delete(s.active, id)
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("Render error: %v", rec)
			s.Report(id, IssuePanic, "%s", msg)
			node, ok = ui.BuildErrorNode(id, c.Tag, msg), true
		}
	}()
	return fn(s, c)
}

// styleOf copies the declared style hints (`style`, or `sx`) of a payload.
func styleOf(props map[string]any) map[string]any {
	for _, key := range []string{"style", "sx"} {
		if m, ok := props[key].(map[string]any); ok && len(m) > 0 {
			return maps.Clone(m)
		}
	}
	return nil
}
