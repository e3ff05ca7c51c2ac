package a2ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidJSON reports generator output that is not decodable JSON. It is
// distinct from a ValidationError, which concerns the decoded shape.
var ErrInvalidJSON = errors.New("a2ui: output is not valid JSON")

// ValidationError describes why a candidate schema was rejected. Index is
// -1 when the problem is not tied to a component entry.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func rejectf(index int, field, format string, args ...any) *ValidationError {
	return &ValidationError{Index: index, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks an arbitrary decoded JSON value against the widget schema
// shape and returns the first problem found. Child references are not
// checked here; the renderer treats dangling ids as empty.
func Validate(candidate any) (*Schema, error) {
	obj, ok := candidate.(map[string]any)
	if !ok || obj == nil {
		return nil, rejectf(-1, "", "Schema must be an object")
	}
	rawComponents, ok := obj["components"].([]any)
	if !ok {
		return nil, rejectf(-1, "components", `Missing or invalid "components" array`)
	}
	root, ok := obj["root"].(string)
	if !ok || root == "" {
		return nil, rejectf(-1, "root", `Missing or invalid "root" string`)
	}

	schema := &Schema{
		Components: make([]ComponentEntry, 0, len(rawComponents)),
		Root:       root,
	}
	ids := make(map[string]struct{}, len(rawComponents))
	for i, raw := range rawComponents {
		comp, ok := raw.(map[string]any)
		if !ok || comp == nil {
			return nil, rejectf(i, "", "components[%d] is not an object", i)
		}
		id, ok := comp["id"].(string)
		if !ok || id == "" {
			return nil, rejectf(i, "id", `components[%d] missing "id"`, i)
		}
		bag, ok := comp["component"].(map[string]any)
		if !ok || bag == nil {
			return nil, rejectf(i, "component", `components[%d] missing "component"`, i)
		}
		if len(bag) == 0 {
			return nil, rejectf(i, "component", "components[%d].component is empty", i)
		}
		ids[id] = struct{}{}
		schema.Components = append(schema.Components, ComponentEntry{ID: id, Component: bag, Extra: extraFields(comp)})
	}

	if _, ok := ids[root]; !ok {
		return nil, rejectf(-1, "root", "Root component %q not found in components", root)
	}
	if styles, ok := obj["styles"].(map[string]any); ok {
		schema.Styles = styles
	}
	return schema, nil
}

// ValidateJSON decodes raw bytes and validates the result. Numbers are kept
// as float64 so payloads match what Validate sees from any JSON decoder.
func ValidateJSON(raw []byte) (*Schema, error) {
	var candidate any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after schema", ErrInvalidJSON)
	}
	return Validate(candidate)
}

// IsValidationError reports whether err is a schema shape rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
