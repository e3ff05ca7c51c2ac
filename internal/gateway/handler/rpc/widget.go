package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/generator"
	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
	"widgetgen/internal/styles"
	"widgetgen/internal/ui"
)

// WidgetHandler serves the WidgetService procedures.
type WidgetHandler struct {
	gen      *generator.Generator
	sessions session.Store
	preview  *preview.Service
	hub      *preview.Hub
	styles   *styles.Registry
	exporter *snapshot.Exporter
}

func NewWidgetHandler(
	gen *generator.Generator,
	sessions session.Store,
	previewSvc *preview.Service,
	hub *preview.Hub,
	reg *styles.Registry,
	exporter *snapshot.Exporter,
) *WidgetHandler {
	return &WidgetHandler{
		gen:      gen,
		sessions: sessions,
		preview:  previewSvc,
		hub:      hub,
		styles:   reg,
		exporter: exporter,
	}
}

// Validate reports whether "schema" is an acceptable widget schema. A
// rejection is a normal response, not an RPC error.
func (h *WidgetHandler) Validate(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	raw, err := rawField(fields(req), "schema")
	if err != nil || len(raw) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("schema is required"))
	}
	schema, err := a2ui.ValidateJSON(raw)
	if err != nil {
		out := map[string]any{"valid": false, "error": err.Error()}
		var verr *a2ui.ValidationError
		if errors.As(err, &verr) {
			out["field"] = verr.Field
			out["index"] = verr.Index
		}
		return respond(out)
	}
	return respond(map[string]any{
		"valid":      true,
		"root":       schema.Root,
		"components": len(schema.Components),
	})
}

// Render validates "schema" and renders it against "data".
func (h *WidgetHandler) Render(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	m := fields(req)
	schemaRaw, err := rawField(m, "schema")
	if err != nil || len(schemaRaw) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("schema is required"))
	}
	dataRaw, err := rawField(m, "data")
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	res, err := h.preview.Render(ctx, schemaRaw, dataRaw)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(renderResponse(res))
}

// Generate runs the chat flow. With "async" set the run continues in the
// background and the pending session is returned at once; progress is
// streamed on the preview websocket.
func (h *WidgetHandler) Generate(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	m := fields(req)
	mode, ok := session.ParseMode(stringField(m, "mode"))
	if !ok && stringField(m, "mode") != "" {
		return nil, toConnectError(generator.ErrInvalidMode)
	}
	genReq := generator.Request{
		SessionID: stringField(m, "sessionId"),
		Mode:      mode,
		Input:     stringField(m, "inputContent", "input"),
		Style:     stringField(m, "uiStyle", "style"),
	}

	if boolField(m, "async") {
		// Errors past this point surface only on the session.
		if err := genReq.Validate(); err != nil {
			return nil, toConnectError(err)
		}
		if genReq.SessionID == "" {
			genReq.SessionID = uuid.NewString()
		} else if _, err := h.sessions.GetSession(ctx, genReq.SessionID); err == nil {
			return nil, toConnectError(fmt.Errorf("%w: %s", session.ErrAlreadyExists, genReq.SessionID))
		} else if !errors.Is(err, session.ErrNotFound) {
			return nil, toConnectError(err)
		}
		runCtx := ui.WithEmitter(context.WithoutCancel(ctx), h.hub)
		go func() {
			if _, err := h.gen.Run(runCtx, genReq); err != nil {
				log.Printf("generate session=%s: %v", genReq.SessionID, err)
			}
		}()
		return respond(map[string]any{
			"session": map[string]any{"id": genReq.SessionID, "status": string(session.StatusPending)},
		})
	}

	sess, err := h.gen.Run(ui.WithEmitter(ctx, h.hub), genReq)
	if err != nil {
		return nil, toConnectError(err)
	}
	return h.sessionResponse(ctx, sess)
}

// Refine rewrites the widget of a session according to "prompt".
func (h *WidgetHandler) Refine(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	m := fields(req)
	id := stringField(m, "sessionId")
	prompt := stringField(m, "prompt", "instruction")
	if id == "" || prompt == "" {
		return nil, toConnectError(generator.ErrMissingFields)
	}
	sess, err := h.gen.RefineSession(ui.WithEmitter(ctx, h.hub), id, prompt)
	if err != nil {
		return nil, toConnectError(err)
	}
	return h.sessionResponse(ctx, sess)
}

// ListSessions returns sessions newest first, each with its first message.
func (h *WidgetHandler) ListSessions(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	limit := intField(fields(req), "limit")
	list, err := h.sessions.ListSessions(ctx, limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := make([]any, 0, len(list))
	for _, s := range list {
		item := sessionSummary(s)
		msgs, err := h.sessions.ListMessages(ctx, s.ID)
		if err == nil && len(msgs) > 0 {
			item["firstMessage"] = map[string]any{
				"content":     msgs[0].Content,
				"messageType": string(msgs[0].Type),
			}
		}
		out = append(out, item)
	}
	return respond(map[string]any{"sessions": out})
}

func (h *WidgetHandler) GetSession(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	id := stringField(fields(req), "sessionId", "id")
	if id == "" {
		return nil, toConnectError(generator.ErrMissingFields)
	}
	sess, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return h.sessionResponse(ctx, sess)
}

// ListStyles returns the active presets ordered for display.
func (h *WidgetHandler) ListStyles(_ context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return respond(map[string]any{"presets": h.styles.Active()})
}

func (h *WidgetHandler) Export(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	id := stringField(fields(req), "sessionId", "id")
	if id == "" {
		return nil, toConnectError(generator.ErrMissingFields)
	}
	manifest, err := h.exporter.Export(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(manifest)
}

func (h *WidgetHandler) sessionResponse(ctx context.Context, sess session.Session) (*connect.Response[structpb.Struct], error) {
	msgs, err := h.sessions.ListMessages(ctx, sess.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(map[string]any{"session": sess, "messages": msgs})
}

func sessionSummary(s session.Session) map[string]any {
	return map[string]any{
		"id":           s.ID,
		"mode":         string(s.Mode),
		"inputContent": s.InputContent,
		"uiStyle":      s.UIStyle,
		"status":       string(s.Status),
		"createdAt":    s.CreatedAt,
		"updatedAt":    s.UpdatedAt,
	}
}

func renderResponse(res preview.Result) map[string]any {
	issues := make([]map[string]any, 0, len(res.Issues))
	for _, is := range res.Issues {
		issues = append(issues, map[string]any{
			"componentId": is.ComponentID,
			"code":        is.Code,
			"message":     is.Message,
		})
	}
	return map[string]any{
		"node":   ui.ToMap(res.Root),
		"issues": issues,
		"cached": res.Cached,
	}
}
