package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/generator"
	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
	"widgetgen/internal/styles"
)

// toStruct converts any JSON-marshalable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func respond(v any) (*connect.Response[structpb.Struct], error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	return connect.NewResponse(s), nil
}

func fields(req *connect.Request[structpb.Struct]) map[string]any {
	if req.Msg == nil {
		return map[string]any{}
	}
	return req.Msg.AsMap()
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intField(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func boolField(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// rawField returns the JSON bytes of m[key]. Strings are taken verbatim so
// raw model output can be submitted as-is.
func rawField(m map[string]any, key string) ([]byte, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v)
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, styles.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case a2ui.IsValidationError(err),
		errors.Is(err, a2ui.ErrInvalidJSON),
		errors.Is(err, preview.ErrInvalidData),
		errors.Is(err, generator.ErrMissingFields),
		errors.Is(err, generator.ErrInvalidMode):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, snapshot.ErrNotReady):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
