// Package a2ui interprets the declarative widget schema emitted by the
// generator: validation, data-model path resolution and tree rendering.
package a2ui

import (
	"encoding/json"
	"sort"
)

// Schema is the generator payload: a flat component list plus a root id.
type Schema struct {
	Components []ComponentEntry `json:"components"`
	Root       string           `json:"root"`
	Styles     map[string]any   `json:"styles,omitempty"`
}

// ComponentEntry is one node of the component graph. Component holds a
// single-key object whose key selects the kind and whose value is the
// kind-specific payload.
type ComponentEntry struct {
	ID        string         `json:"id"`
	Component map[string]any `json:"component"`
	// Extra keeps any other entry fields (e.g. weight) so they round-trip.
	Extra map[string]any `json:"-"`
}

func (e ComponentEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["id"] = e.ID
	out["component"] = e.Component
	return json.Marshal(out)
}

func (e *ComponentEntry) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, _ := raw["id"].(string)
	bag, _ := raw["component"].(map[string]any)
	*e = ComponentEntry{ID: id, Component: bag, Extra: extraFields(raw)}
	return nil
}

// extraFields returns the entry keys other than id and component, or nil.
func extraFields(entry map[string]any) map[string]any {
	var out map[string]any
	for k, v := range entry {
		if k == "id" || k == "component" {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

// PrimaryColor returns the cosmetic primary color hint, if any.
func (s *Schema) PrimaryColor() string {
	if s == nil {
		return ""
	}
	v, _ := s.Styles["primaryColor"].(string)
	return v
}

// Font returns the cosmetic font hint, if any.
func (s *Schema) Font() string {
	if s == nil {
		return ""
	}
	v, _ := s.Styles["font"].(string)
	return v
}

// Index maps component ids to entries. Later duplicates replace earlier ones.
func (s *Schema) Index() map[string]ComponentEntry {
	if s == nil {
		return map[string]ComponentEntry{}
	}
	out := make(map[string]ComponentEntry, len(s.Components))
	for _, c := range s.Components {
		out[c.ID] = c
	}
	return out
}

// Component is a resolved view of a ComponentEntry: its tag, kind and payload.
type Component struct {
	ID    string
	Tag   string
	Kind  Kind
	Props map[string]any
}

// Resolve extracts the kind tag and payload of an entry. When the bag has
// several keys, a known kind wins over unknown ones and ties are broken by
// key order so the choice is stable.
func (e ComponentEntry) Resolve() Component {
	tag := selectTag(e.Component)
	props, _ := e.Component[tag].(map[string]any)
	return Component{
		ID:    e.ID,
		Tag:   tag,
		Kind:  ParseKind(tag),
		Props: props,
	}
}

func selectTag(bag map[string]any) string {
	if len(bag) == 0 {
		return ""
	}
	if len(bag) == 1 {
		for k := range bag {
			return k
		}
	}
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if ParseKind(k) != KindUnknown {
			return k
		}
	}
	return keys[0]
}

// ChildIDs returns the child references of a payload: the single `child`
// first, then `children.explicitList` in order. References may be plain ids
// or {"componentId": id} objects; anything else is skipped.
func ChildIDs(props map[string]any) []string {
	if props == nil {
		return nil
	}
	var out []string
	if id, ok := childRef(props["child"]); ok {
		out = append(out, id)
	}
	switch children := props["children"].(type) {
	case map[string]any:
		if list, ok := children["explicitList"].([]any); ok {
			for _, item := range list {
				if id, ok := childRef(item); ok {
					out = append(out, id)
				}
			}
		}
	case []any:
		for _, item := range children {
			if id, ok := childRef(item); ok {
				out = append(out, id)
			}
		}
	}
	return out
}

func childRef(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case map[string]any:
		id, ok := x["componentId"].(string)
		return id, ok && id != ""
	}
	return "", false
}
