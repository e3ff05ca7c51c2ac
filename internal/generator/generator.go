// Package generator turns an app description (or a catalog app id) into a
// validated widget schema: mock data first, then the schema that renders it.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/llm"
	"widgetgen/internal/session"
	"widgetgen/internal/styles"
	"widgetgen/internal/util/jsonutil"
)

var (
	ErrInvalidOutput   = errors.New("LLM output is not valid JSON")
	ErrInvalidSchema   = errors.New("Invalid A2UI schema")
	ErrInvalidMockData = errors.New(`Invalid mock data structure. Missing "data" or "meta" field`)
	ErrMissingFields   = errors.New("Missing required fields")
	ErrInvalidMode     = errors.New(`Invalid mode. Must be "appId" or "description"`)
	ErrLLM             = errors.New("LLM API error")
)

// MockData is the sample payload a widget is designed against. Data is the
// data model the schema's paths resolve into.
type MockData struct {
	Widget map[string]any `json:"widget,omitempty"`
	Data   map[string]any `json:"data"`
	Meta   map[string]any `json:"meta"`
}

type Generator struct {
	llm      llm.LLMClient
	styles   *styles.Registry
	store    session.Store
	renderer *a2ui.Renderer
	catalog  []string
}

type Option func(*Generator)

// WithRenderer sets the renderer used for preview events and the component
// kinds advertised to the model.
func WithRenderer(r *a2ui.Renderer, cat *a2ui.Catalog) Option {
	return func(g *Generator) {
		g.renderer = r
		g.catalog = cat.Tags()
	}
}

func New(client llm.LLMClient, reg *styles.Registry, store session.Store, opts ...Option) *Generator {
	if reg == nil {
		reg = styles.Default()
	}
	cat := a2ui.DefaultCatalog()
	g := &Generator{
		llm:      client,
		styles:   reg,
		store:    store,
		renderer: a2ui.NewRenderer(cat),
		catalog:  cat.Tags(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateMockData asks the model for mock data. app is used in appId mode.
func (g *Generator) GenerateMockData(ctx context.Context, mode session.Mode, input string, app *session.AppMetadata) (MockData, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseMockData)
	raw, err := g.llm.GenerateJSON(ctx, buildMockDataPrompt(mode, input, app), nil)
	if err != nil {
		return MockData{}, fmt.Errorf("%w: %w", ErrLLM, err)
	}
	var mock MockData
	if err := jsonutil.DecodeModelOutput(raw, &mock); err != nil {
		return MockData{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if mock.Data == nil || mock.Meta == nil {
		return MockData{}, ErrInvalidMockData
	}
	return mock, nil
}

// GenerateSchema asks the model for a widget schema over mock, styled with
// the named preset, and validates it.
func (g *Generator) GenerateSchema(ctx context.Context, mock MockData, styleName string) (*a2ui.Schema, error) {
	preset, err := g.styles.Get(styleName)
	if err != nil {
		return nil, fmt.Errorf("UI style preset not found: %s", styleName)
	}
	ctx = llm.WithPhase(ctx, llm.PhaseSchema)
	raw, err := g.llm.GenerateJSON(ctx, buildWidgetPrompt(mock, preset.Prompt, g.catalog), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLM, err)
	}
	return ParseSchemaOutput(raw)
}

// Refine rewrites previous according to instruction.
func (g *Generator) Refine(ctx context.Context, previous *a2ui.Schema, instruction string) (*a2ui.Schema, error) {
	instruction = strings.TrimSpace(instruction)
	if previous == nil || instruction == "" {
		return nil, ErrMissingFields
	}
	ctx = llm.WithPhase(ctx, llm.PhaseRefine)
	raw, err := g.llm.GenerateJSON(ctx, buildRefinePrompt(g.catalog), refineInput(previous, instruction))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLM, err)
	}
	return ParseSchemaOutput(raw)
}

// ParseSchemaOutput strips code fences from a model reply, decodes it and
// validates the result.
func ParseSchemaOutput(raw []byte) (*a2ui.Schema, error) {
	var candidate any
	if err := jsonutil.DecodeModelOutput(raw, &candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	schema, err := a2ui.Validate(candidate)
	if err != nil {
		var verr *a2ui.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSchema, verr.Message)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return schema, nil
}

func decodeStored(raw json.RawMessage) (*a2ui.Schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("session has no widget schema")
	}
	return a2ui.ValidateJSON(raw)
}
