package a2ui

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetgen/internal/ui"
)

func mustSchema(t *testing.T, js string) *Schema {
	t.Helper()
	schema, err := ValidateJSON([]byte(js))
	require.NoError(t, err)
	return schema
}

func issueCodes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestRenderEndToEnd(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Column":{"children":{"explicitList":["t1","t2"]}}}},
			{"id":"t1","component":{"Text":{"text":{"path":"/title"}}}},
			{"id":"t2","component":{"Text":{"literalString":"static"}}}
		],
		"root":"root"}`)
	model := decode(t, `{"title":"Hello"}`)

	got := NewRenderer(StandardCatalog()).Render(schema, model)

	want := ui.Node{
		ID:     "root",
		Type:   ui.NodeTypeStack,
		Kind:   "Column",
		Layout: &ui.LayoutState{Direction: ui.DirectionColumn},
		Children: []ui.Node{
			{ID: "t1", Type: ui.NodeTypeText, Kind: "Text", Text: &ui.TextState{Text: "Hello"}},
			{ID: "t2", Type: ui.NodeTypeText, Kind: "Text", Text: &ui.TextState{Text: "static"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMissingRootAborts(t *testing.T) {
	schema := &Schema{
		Components: []ComponentEntry{{ID: "a", Component: map[string]any{"Text": map[string]any{"text": "x"}}}},
		Root:       "ghost",
	}
	res := NewRenderer(nil).RenderWithIssues(schema, nil)

	assert.Equal(t, ui.NodeTypeError, res.Root.Type)
	require.NotNil(t, res.Root.Error)
	assert.Equal(t, MissingRootMessage, res.Root.Error.Message)
	assert.Empty(t, res.Root.Children)
	assert.Equal(t, []string{IssueMissingRoot}, issueCodes(res.Issues))

	assert.Equal(t, ui.NodeTypeError, Render(nil, nil).Type)
}

func TestRenderTextWithMissingPathIsEmpty(t *testing.T) {
	schema := mustSchema(t, `{"components":[{"id":"t","component":{"Text":{"text":{"path":"/nope/deeper"}}}}],"root":"t"}`)
	node := Render(schema, map[string]any{})
	assert.Equal(t, ui.NodeTypeText, node.Type)
	assert.Equal(t, "", node.Text.Text)
}

func TestRenderSkipsDanglingChild(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Column":{"children":{"explicitList":["a","ghost","b"]}}}},
			{"id":"a","component":{"Text":{"text":"A"}}},
			{"id":"b","component":{"Text":{"text":"B"}}}
		],
		"root":"root"}`)
	res := NewRenderer(nil).RenderWithIssues(schema, nil)

	require.Len(t, res.Root.Children, 2)
	assert.Equal(t, "a", res.Root.Children[0].ID)
	assert.Equal(t, "b", res.Root.Children[1].ID)
	assert.Equal(t, []string{IssueDanglingChild}, issueCodes(res.Issues))
}

func TestRenderUnknownKindRendersChildren(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Foo":{"child":"t","children":{"explicitList":[{"componentId":"u"}]},"style":{"padding":4}}}},
			{"id":"t","component":{"Text":{"text":"inner"}}},
			{"id":"u","component":{"Badge":{"label":"new"}}}
		],
		"root":"root"}`)
	res := NewRenderer(nil).RenderWithIssues(schema, nil)

	assert.Equal(t, ui.NodeTypeContainer, res.Root.Type)
	assert.Equal(t, "Foo", res.Root.Kind)
	assert.Equal(t, map[string]any{"padding": 4.0}, res.Root.Style)
	require.Len(t, res.Root.Children, 2)
	assert.Equal(t, "inner", res.Root.Children[0].Text.Text)
	assert.Equal(t, ui.NodeTypeBadge, res.Root.Children[1].Type)
	assert.Equal(t, "new", res.Root.Children[1].Text.Text)
	assert.Contains(t, issueCodes(res.Issues), IssueUnknownKind)
}

func TestRenderGuardsAgainstCycles(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"a","component":{"Column":{"children":{"explicitList":["b"]}}}},
			{"id":"b","component":{"Row":{"children":{"explicitList":["a","leaf"]}}}},
			{"id":"leaf","component":{"Text":{"text":"ok"}}}
		],
		"root":"a"}`)

	var res Result
	require.NotPanics(t, func() { res = NewRenderer(nil).RenderWithIssues(schema, nil) })

	require.Len(t, res.Root.Children, 1)
	b := res.Root.Children[0]
	assert.Equal(t, "b", b.ID)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "leaf", b.Children[0].ID)
	assert.Equal(t, []string{IssueCycle}, issueCodes(res.Issues))
}

func TestRenderSharedChildIsNotACycle(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Row":{"children":{"explicitList":["x","x"]}}}},
			{"id":"x","component":{"Text":{"text":"twice"}}}
		],
		"root":"root"}`)
	res := NewRenderer(nil).RenderWithIssues(schema, nil)
	require.Len(t, res.Root.Children, 2)
	assert.Empty(t, res.Issues)
}

func TestRenderMaxDepth(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"a","component":{"Box":{"child":"b"}}},
			{"id":"b","component":{"Box":{"child":"c"}}},
			{"id":"c","component":{"Text":{"text":"deep"}}}
		],
		"root":"a"}`)
	res := NewRenderer(nil, WithMaxDepth(2)).RenderWithIssues(schema, nil)

	require.Len(t, res.Root.Children, 1)
	assert.Empty(t, res.Root.Children[0].Children)
	assert.Equal(t, []string{IssueMaxDepth}, issueCodes(res.Issues))
}

func TestRenderStopsAtNodeBudget(t *testing.T) {
	// Each level lists the next one twice: 2^24 nodes without a budget.
	const levels = 24
	var b strings.Builder
	b.WriteString(`{"components":[`)
	for i := 0; i < levels; i++ {
		fmt.Fprintf(&b, `{"id":"n%d","component":{"Column":{"children":{"explicitList":["n%d","n%d"]}}}},`, i, i+1, i+1)
	}
	fmt.Fprintf(&b, `{"id":"n%d","component":{"Text":{"text":"leaf"}}}],"root":"n0"}`, levels)
	schema := mustSchema(t, b.String())

	res := NewRenderer(nil, WithMaxNodes(100)).RenderWithIssues(schema, nil)

	count := 0
	res.Root.Walk(func(ui.Node) bool {
		count++
		return true
	})
	assert.Equal(t, 100, count)
	assert.Equal(t, []string{IssueMaxNodes}, issueCodes(res.Issues))
}

func TestRenderDefaultNodeBudgetBoundsSharedChildren(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"components":[`)
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `{"id":"n%d","component":{"Row":{"children":{"explicitList":["n%d","n%d"]}}}},`, i, i+1, i+1)
	}
	b.WriteString(`{"id":"n40","component":{"Text":{"text":"leaf"}}}],"root":"n0"}`)
	schema := mustSchema(t, b.String())

	res := NewRenderer(nil).RenderWithIssues(schema, nil)

	count := 0
	res.Root.Walk(func(ui.Node) bool {
		count++
		return true
	})
	assert.LessOrEqual(t, count, DefaultMaxNodes)
	assert.Contains(t, issueCodes(res.Issues), IssueMaxNodes)
}

func TestRenderAppliesThemeHintsToRoot(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Card":{"child":"t"}}},
			{"id":"t","component":{"Text":{"text":"x"}}}
		],
		"root":"root",
		"styles":{"primaryColor":"#1976d2","font":"Roboto"}}`)
	got := NewRenderer(nil).Render(schema, nil)
	assert.Equal(t, map[string]any{"primaryColor": "#1976d2", "fontFamily": "Roboto"}, got.Style)
	assert.Nil(t, got.Children[0].Style)

	own := mustSchema(t, `{
		"components":[{"id":"root","component":{"Box":{"style":{"fontFamily":"Inter"}}}}],
		"root":"root",
		"styles":{"font":"Roboto"}}`)
	assert.Equal(t, map[string]any{"fontFamily": "Inter"}, NewRenderer(nil).Render(own, nil).Style)
}

func TestRenderImageRounded(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Row":{"children":{"explicitList":["a","b","c"]}}}},
			{"id":"a","component":{"Image":{"src":"a.png","rounded":true}}},
			{"id":"b","component":{"Image":{"src":"b.png","rounded":{"path":"/round"}}}},
			{"id":"c","component":{"Image":{"src":"c.png"}}}
		],
		"root":"root"}`)
	root := NewRenderer(nil).Render(schema, decode(t, `{"round":"true"}`))
	require.Len(t, root.Children, 3)
	assert.True(t, root.Children[0].Image.Rounded)
	assert.True(t, root.Children[1].Image.Rounded)
	assert.False(t, root.Children[2].Image.Rounded)
}

func TestRenderLayoutKinds(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Stack":{"direction":"horizontal","gap":{"path":"/gap"},"align":"center","children":{"explicitList":["grid","div","img","icon","bad-icon","paper"]}}}},
			{"id":"grid","component":{"Grid":{"columnCount":3}}},
			{"id":"div","component":{"Divider":{"axis":"vertical"}}},
			{"id":"img","component":{"Image":{"src":{"path":"/logo"},"alt":"logo"}}},
			{"id":"icon","component":{"Icon":{"name":{"literalString":"TrendingUp"}}}},
			{"id":"bad-icon","component":{"Icon":{"name":"NotAnIcon"}}},
			{"id":"paper","component":{"Paper":{}}}
		],
		"root":"root"}`)
	model := decode(t, `{"gap": 12, "logo": "https://example.com/logo.png"}`)
	res := NewRenderer(nil).RenderWithIssues(schema, model)
	root := res.Root

	assert.Equal(t, ui.DirectionRow, root.Layout.Direction)
	assert.Equal(t, 12.0, root.Layout.Gap)
	assert.Equal(t, "center", root.Layout.Align)
	require.Len(t, root.Children, 5)

	grid := root.Children[0]
	assert.Equal(t, ui.NodeTypeGrid, grid.Type)
	assert.Equal(t, 3, grid.Layout.Columns)
	assert.Equal(t, 8.0, grid.Layout.Gap)

	assert.Equal(t, ui.AxisVertical, root.Children[1].Divider.Axis)
	assert.Equal(t, "https://example.com/logo.png", root.Children[2].Image.Src)
	assert.Equal(t, "logo", root.Children[2].Image.Alt)
	assert.Equal(t, "TrendingUp", root.Children[3].Icon.Name)

	paper := root.Children[4]
	assert.Equal(t, "paper", paper.Layout.Variant)
	assert.Equal(t, 1, paper.Layout.Elevation)

	assert.Equal(t, []string{IssueUnknownIcon}, issueCodes(res.Issues))
}

func TestRenderGridDefaultsToTwoColumns(t *testing.T) {
	schema := mustSchema(t, `{"components":[{"id":"g","component":{"Grid":{}}}],"root":"g"}`)
	node := Render(schema, nil)
	assert.Equal(t, 2, node.Layout.Columns)
}

func TestRenderUnknownIconAtRootKeepsRootNode(t *testing.T) {
	schema := mustSchema(t, `{"components":[{"id":"i","component":{"Icon":{"name":"Nope"}}}],"root":"i"}`)
	node := Render(schema, nil)
	assert.Equal(t, "i", node.ID)
	assert.Equal(t, ui.NodeTypeContainer, node.Type)
	assert.Empty(t, node.Children)
}

func TestRenderTextHints(t *testing.T) {
	schema := mustSchema(t, `{"components":[{"id":"t","component":{"Text":{"text":{"path":"/temp"},"usageHint":"h1","prefix":"~","suffix":"°"}}}],"root":"t"}`)

	node := Render(schema, map[string]any{"temp": 21.0})
	assert.Equal(t, "~21°", node.Text.Text)
	assert.Equal(t, "h3", node.Text.Variant)

	plain := NewRenderer(StandardCatalog()).Render(schema, map[string]any{"temp": 21.0})
	assert.Equal(t, "21", plain.Text.Text)
	assert.Equal(t, "", plain.Text.Variant)
}

func TestRenderBadgeAndChip(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"r","component":{"Row":{"children":{"explicitList":["b","c"]}}}},
			{"id":"b","component":{"Badge":{"text":{"path":"/status"}}}},
			{"id":"c","component":{"Chip":{"label":{"literalString":"Pro"}}}}
		],
		"root":"r"}`)
	node := Render(schema, map[string]any{"status": "live"})
	require.Len(t, node.Children, 2)
	assert.Equal(t, "live", node.Children[0].Text.Text)
	assert.Equal(t, ui.NodeTypeBadge, node.Children[1].Type)
	assert.Equal(t, "Pro", node.Children[1].Text.Text)
}

func TestRenderProgress(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"r","component":{"List":{"children":{"explicitList":["p","q"]}}}},
			{"id":"p","component":{"LinearProgress":{"value":{"path":"/pct"}}}},
			{"id":"q","component":{"CircularProgress":{"value":"oops"}}}
		],
		"root":"r"}`)
	node := Render(schema, map[string]any{"pct": 40.0})
	require.Len(t, node.Children, 2)
	require.NotNil(t, node.Children[0].Progress.Value)
	assert.Equal(t, 40.0, *node.Children[0].Progress.Value)
	assert.Nil(t, node.Children[1].Progress.Value)
	assert.True(t, node.Children[1].Progress.Circular)
}

func TestRenderRecoversFromPanickingRenderFunc(t *testing.T) {
	cat := DefaultCatalog().Extend(map[string]RenderFunc{
		"Boom": func(*Scope, Component) (ui.Node, bool) { panic("kaboom") },
	})
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Column":{"children":{"explicitList":["x","y"]}}}},
			{"id":"x","component":{"Boom":{}}},
			{"id":"y","component":{"Text":{"text":"still here"}}}
		],
		"root":"root"}`)
	res := NewRenderer(cat).RenderWithIssues(schema, nil)

	require.Len(t, res.Root.Children, 2)
	assert.Equal(t, ui.NodeTypeError, res.Root.Children[0].Type)
	assert.Equal(t, "Render error: kaboom", res.Root.Children[0].Error.Message)
	assert.Equal(t, "still here", res.Root.Children[1].Text.Text)
}

func TestCatalogOverrideByTag(t *testing.T) {
	cat := StandardCatalog().Extend(map[string]RenderFunc{
		"Text": func(_ *Scope, c Component) (ui.Node, bool) {
			return ui.BuildTextNode(c.ID, c.Tag, "overridden", "", nil), true
		},
	})
	schema := mustSchema(t, `{"components":[{"id":"t","component":{"Text":{"text":"orig"}}}],"root":"t"}`)

	assert.Equal(t, "overridden", NewRenderer(cat).Render(schema, nil).Text.Text)
	// The base catalog is untouched.
	assert.Equal(t, "orig", NewRenderer(StandardCatalog()).Render(schema, nil).Text.Text)
	assert.Contains(t, cat.Tags(), "Chart")
}

func TestRenderDoesNotMutateInputs(t *testing.T) {
	js := `{
		"components":[
			{"id":"root","component":{"Box":{"style":{"padding":8},"children":{"explicitList":["c"]}}}},
			{"id":"c","component":{"Chart":{"chartType":"bar","data":{"path":"/rows"},"labelKey":"k","valueKey":"v"}}}
		],
		"root":"root"}`
	schema := mustSchema(t, js)
	model := decode(t, `{"rows":[{"k":"a","v":1}]}`)
	before := mustSchema(t, js)
	modelBefore := decode(t, `{"rows":[{"k":"a","v":1}]}`)

	node := Render(schema, model)
	node.Style["padding"] = 99.0

	assert.Equal(t, before, schema)
	assert.Equal(t, modelBefore, model)
}

func TestRenderIsReentrant(t *testing.T) {
	schema := mustSchema(t, `{
		"components":[
			{"id":"root","component":{"Column":{"children":{"explicitList":["t"]}}}},
			{"id":"t","component":{"Text":{"text":{"path":"/n"}}}}
		],
		"root":"root"}`)
	r := NewRenderer(nil)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := map[string]any{"n": float64(i)}
			got := r.Render(schema, model).Children[0].Text.Text
			if got != FormatValue(float64(i)) {
				errs <- got
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("unexpected concurrent render output %q", got)
	}
}
