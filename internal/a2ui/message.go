package a2ui

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"widgetgen/internal/ui"
)

// MissingBeginRenderingMessage is the diagnostic for a surface that never
// received a beginRendering message.
const MissingBeginRenderingMessage = "Missing beginRendering.rootComponentId"

// DefaultSurfaceID is the surface the preview renders generated widgets on.
const DefaultSurfaceID = "widget"

// Message is one step of the rendering handshake. Exactly one field is set.
type Message struct {
	SurfaceUpdate   *SurfaceUpdate   `json:"surfaceUpdate,omitempty"`
	BeginRendering  *BeginRendering  `json:"beginRendering,omitempty"`
	DataModelUpdate *DataModelUpdate `json:"dataModelUpdate,omitempty"`
}

type SurfaceUpdate struct {
	SurfaceID  string           `json:"surfaceId"`
	Components []ComponentEntry `json:"components"`
}

type BeginRendering struct {
	SurfaceID       string         `json:"surfaceId"`
	Root            string         `json:"root,omitempty"`
	RootComponentID string         `json:"rootComponentId,omitempty"`
	Styles          map[string]any `json:"styles,omitempty"`
}

// RootID accepts both spellings of the root field.
func (b *BeginRendering) RootID() string {
	if b == nil {
		return ""
	}
	if b.RootComponentID != "" {
		return b.RootComponentID
	}
	return b.Root
}

type DataModelUpdate struct {
	SurfaceID string `json:"surfaceId,omitempty"`
	Path      string `json:"path,omitempty"`
	DataModel any    `json:"dataModel"`
}

// ParseMessages decodes a JSON array of handshake messages. Entries that do
// not decode are skipped so a partially streamed payload still renders.
func ParseMessages(raw []byte) ([]Message, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		if m.SurfaceUpdate == nil && m.BeginRendering == nil && m.DataModelUpdate == nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MessagesFromSchema converts a validated schema and its data into the
// handshake sequence: surfaceUpdate, beginRendering, dataModelUpdate.
func MessagesFromSchema(schema *Schema, surfaceID string, data any) []Message {
	if surfaceID == "" {
		surfaceID = DefaultSurfaceID
	}
	msgs := []Message{
		{SurfaceUpdate: &SurfaceUpdate{SurfaceID: surfaceID, Components: schema.Components}},
		{BeginRendering: &BeginRendering{SurfaceID: surfaceID, RootComponentID: schema.Root, Styles: schema.Styles}},
	}
	if data != nil {
		msgs = append(msgs, Message{DataModelUpdate: &DataModelUpdate{SurfaceID: surfaceID, Path: "/", DataModel: data}})
	}
	return msgs
}

// Surface accumulates handshake messages for one surface id.
type Surface struct {
	ID         string
	components []ComponentEntry
	positions  map[string]int
	root       string
	styles     map[string]any
	dataModel  any
	hasData    bool
}

func NewSurface(id string) *Surface {
	if id == "" {
		id = DefaultSurfaceID
	}
	return &Surface{ID: id, positions: make(map[string]int)}
}

// Apply folds one message into the surface. Messages addressed to another
// surface are ignored; component updates upsert by id.
func (s *Surface) Apply(m Message) {
	switch {
	case m.SurfaceUpdate != nil:
		if !s.accepts(m.SurfaceUpdate.SurfaceID) {
			return
		}
		for _, c := range m.SurfaceUpdate.Components {
			if c.ID == "" {
				continue
			}
			if i, ok := s.positions[c.ID]; ok {
				s.components[i] = c
				continue
			}
			s.positions[c.ID] = len(s.components)
			s.components = append(s.components, c)
		}
	case m.BeginRendering != nil:
		if !s.accepts(m.BeginRendering.SurfaceID) {
			return
		}
		s.root = m.BeginRendering.RootID()
		s.styles = m.BeginRendering.Styles
	case m.DataModelUpdate != nil:
		if !s.accepts(m.DataModelUpdate.SurfaceID) {
			return
		}
		s.dataModel = setAt(s.dataModel, m.DataModelUpdate.Path, m.DataModelUpdate.DataModel)
		s.hasData = true
	}
}

// setAt returns model with value stored at path. "" and "/" replace the
// whole model; other paths create intermediate objects as needed. Containers
// along the path are copied, never mutated. An out-of-range array index or a
// path without a leading "/" leaves model unchanged.
func setAt(model any, path string, value any) any {
	if path == "" || path == "/" {
		return value
	}
	if !strings.HasPrefix(path, "/") {
		return model
	}
	return setSegments(model, strings.Split(path[1:], "/"), value)
}

func setSegments(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	key := unescapeSegment(segs[0])
	switch x := node.(type) {
	case []any:
		i, ok := arrayIndex(key, len(x))
		if !ok {
			return x
		}
		out := slices.Clone(x)
		out[i] = setSegments(x[i], segs[1:], value)
		return out
	case map[string]any:
		out := maps.Clone(x)
		out[key] = setSegments(x[key], segs[1:], value)
		return out
	}
	return map[string]any{key: setSegments(nil, segs[1:], value)}
}

func (s *Surface) accepts(id string) bool {
	return id == "" || id == s.ID
}

// Schema returns the accumulated component graph.
func (s *Surface) Schema() *Schema {
	return &Schema{
		Components: append([]ComponentEntry(nil), s.components...),
		Root:       s.root,
		Styles:     s.styles,
	}
}

// Render renders the surface. A data model delivered through the handshake
// takes precedence over fallbackModel.
func (s *Surface) Render(r *Renderer, fallbackModel any) Result {
	if s.root == "" {
		return Result{
			Root:   ui.BuildErrorNode("", "", MissingBeginRenderingMessage),
			Issues: []Issue{{Code: IssueMissingRoot, Message: MissingBeginRenderingMessage}},
		}
	}
	if r == nil {
		r = defaultRenderer
	}
	model := fallbackModel
	if s.hasData && s.dataModel != nil {
		model = s.dataModel
	}
	return r.RenderWithIssues(s.Schema(), model)
}
