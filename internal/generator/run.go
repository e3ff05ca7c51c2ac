package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/llm"
	"widgetgen/internal/session"
	"widgetgen/internal/telemetry"
	"widgetgen/internal/ui"
)

// Assistant lines written to the transcript.
const (
	msgFetchAppMetadata  = "I'll fetch the metadata for app ID: %s"
	msgStartMockAppID    = "Based on this metadata, I'll generate mock data for the widget."
	msgStartMockDesc     = "Based on your description, I'll generate mock data for the widget."
	msgStartWidget       = "Based on the mock data and style (%s), I'll generate the widget."
	msgStartRefine       = "I'll refine the widget: %s"
	msgErrInvalidAppID   = "The provided App ID doesn't exist in our database."
	msgErrLLMFailed      = "Failed to communicate with the LLM API. Please check your API key and configuration."
	msgErrMockDataFailed = "I encountered an error while generating mock data. Please try again."
	msgErrInvalidWidget  = "The generated widget was invalid. Please try again or rephrase your request."
	msgErrGeneric        = "An error occurred while processing your request. Please try again."
)

// Request starts a generation run. SessionID may be chosen by the caller so
// it can subscribe to preview events before the run starts.
type Request struct {
	SessionID string
	Mode      session.Mode
	Input     string
	Style     string
}

// Validate checks the fields Run requires before any session is created.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Input) == "" || strings.TrimSpace(r.Style) == "" || r.Mode == "" {
		return ErrMissingFields
	}
	if _, ok := session.ParseMode(string(r.Mode)); !ok {
		return ErrInvalidMode
	}
	return nil
}

var errAppNotFound = errors.New("App not found")

// Run executes the whole chat flow for req: the user message, app metadata
// in appId mode, mock data, then the widget schema. Every step is persisted
// as a session message and emitted to the ui.Emitter attached to ctx. The
// returned session is completed, or failed with Error set; err is non-nil
// only when the session could not be created.
func (g *Generator) Run(ctx context.Context, req Request) (session.Session, error) {
	if err := req.Validate(); err != nil {
		return session.Session{}, err
	}
	ctx, span := telemetry.Start(ctx, "generator.run")
	defer span.End()
	span.SetAttributes(attribute.String("widget.mode", string(req.Mode)), attribute.String("widget.style", req.Style))

	sess, err := g.store.CreateSession(ctx, session.Session{
		ID:           strings.TrimSpace(req.SessionID),
		Mode:         req.Mode,
		InputContent: req.Input,
		UIStyle:      req.Style,
		Status:       session.StatusPending,
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}
	log.Printf("generator: session=%s mode=%s style=%s", sess.ID, sess.Mode, sess.UIStyle)

	r := &run{g: g, ctx: ctx, sessionID: sess.ID}
	userContent := req.Input
	if req.Mode == session.ModeAppID {
		userContent = "App ID: " + req.Input
	}
	r.say(session.RoleUser, session.MessageInput, userContent, nil)

	span.SetAttributes(attribute.String("widget.session_id", sess.ID))
	if err := r.generate(req); err != nil {
		span.RecordError(err)
		return r.fail(err), nil
	}
	return r.finish()
}

// RefineSession applies instruction to the schema stored on a completed
// session and records both sides of the exchange.
func (g *Generator) RefineSession(ctx context.Context, sessionID, instruction string) (session.Session, error) {
	ctx, span := telemetry.Start(ctx, "generator.refine")
	defer span.End()
	span.SetAttributes(attribute.String("widget.session_id", sessionID))

	sess, err := g.store.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	previous, err := decodeStored(sess.Schema)
	if err != nil {
		return session.Session{}, err
	}
	r := &run{g: g, ctx: ctx, sessionID: sess.ID}
	r.say(session.RoleUser, session.MessageInput, instruction, nil)
	r.say(session.RoleAssistant, session.MessageText, fmt.Sprintf(msgStartRefine, instruction), nil)

	r.phase = llm.PhaseRefine
	schema, err := g.Refine(ctx, previous, instruction)
	if err != nil {
		return r.fail(err), nil
	}
	var mock MockData
	if len(sess.MockData) > 0 {
		_ = json.Unmarshal(sess.MockData, &mock)
	}
	if err := r.publishSchema(schema, mock.Data); err != nil {
		return r.fail(err), nil
	}
	return r.finish()
}

type run struct {
	g         *Generator
	ctx       context.Context
	sessionID string
	phase     string
}

func (r *run) generate(req Request) error {
	preset, err := r.g.styles.Get(req.Style)
	if err != nil {
		return fmt.Errorf("UI style preset not found: %s", req.Style)
	}

	var app *session.AppMetadata
	if req.Mode == session.ModeAppID {
		r.say(session.RoleAssistant, session.MessageText, fmt.Sprintf(msgFetchAppMetadata, req.Input), nil)
		meta, err := r.g.store.GetApp(r.ctx, req.Input)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("%w: %s", errAppNotFound, req.Input)
			}
			return err
		}
		app = &meta
		r.sayJSON(session.MessageAppMetadata, meta)
		r.say(session.RoleAssistant, session.MessageText, msgStartMockAppID, nil)
	} else {
		r.say(session.RoleAssistant, session.MessageText, msgStartMockDesc, nil)
	}

	r.phase = llm.PhaseMockData
	mock, err := r.g.GenerateMockData(r.ctx, req.Mode, req.Input, app)
	if err != nil {
		return err
	}
	mockRaw := r.sayJSON(session.MessageMockData, mock)
	if _, err := r.g.store.UpdateSession(r.ctx, r.sessionID, func(s *session.Session) {
		s.MockData = mockRaw
		if app != nil {
			s.App = app
			s.AppID = app.ID
		}
	}); err != nil {
		return err
	}

	r.say(session.RoleAssistant, session.MessageText, fmt.Sprintf(msgStartWidget, preset.DisplayName), nil)
	r.phase = llm.PhaseSchema
	schema, err := r.g.GenerateSchema(r.ctx, mock, req.Style)
	if err != nil {
		return err
	}
	return r.publishSchema(schema, mock.Data)
}

// publishSchema stores the schema on the session, records it in the
// transcript and emits a rendered preview.
func (r *run) publishSchema(schema *a2ui.Schema, data map[string]any) error {
	raw := r.sayJSON(session.MessageWidget, schema)
	if _, err := r.g.store.UpdateSession(r.ctx, r.sessionID, func(s *session.Session) {
		s.Schema = raw
	}); err != nil {
		return err
	}
	res := r.g.renderer.RenderWithIssues(schema, data)
	for _, is := range res.Issues {
		log.Printf("generator: session=%s render issue component=%s code=%s: %s", r.sessionID, is.ComponentID, is.Code, is.Message)
	}
	node := res.Root
	ui.Emit(r.ctx, ui.Event{Type: ui.EventTypeRender, SessionID: r.sessionID, Node: &node})
	return nil
}

func (r *run) finish() (session.Session, error) {
	sess, err := r.g.store.UpdateSession(r.ctx, r.sessionID, func(s *session.Session) {
		s.Status = session.StatusCompleted
		s.Error = ""
	})
	if err != nil {
		return r.fail(err), nil
	}
	r.status(sess)
	return sess, nil
}

func (r *run) fail(cause error) session.Session {
	log.Printf("generator: session=%s failed: %v", r.sessionID, cause)
	// The run's context may be canceled; persist the failure regardless.
	ctx := context.WithoutCancel(r.ctx)
	sess, err := r.g.store.UpdateSession(ctx, r.sessionID, func(s *session.Session) {
		s.Status = session.StatusFailed
		s.Error = cause.Error()
	})
	if err != nil {
		log.Printf("generator: session=%s: failed to record failure: %v", r.sessionID, err)
		sess = session.Session{ID: r.sessionID, Status: session.StatusFailed, Error: cause.Error()}
	}
	content := userFacingError(cause, r.phase)
	if m, err := r.g.store.AppendMessage(ctx, session.Message{
		SessionID: r.sessionID,
		Role:      session.RoleAssistant,
		Type:      session.MessageError,
		Content:   content,
	}); err == nil {
		r.emitMessage(m)
	}
	ui.Emit(r.ctx, ui.Event{Type: ui.EventTypeError, SessionID: r.sessionID, Message: content})
	r.status(sess)
	return sess
}

func (r *run) status(sess session.Session) {
	ui.Emit(r.ctx, ui.Event{
		Type:      ui.EventTypeStatus,
		SessionID: r.sessionID,
		Payload:   map[string]any{"status": string(sess.Status), "error": sess.Error},
	})
}

// say appends a transcript message and emits it. Persistence failures are
// logged; the run continues so the caller still gets a result.
func (r *run) say(role session.Role, typ session.MessageType, content string, data json.RawMessage) {
	m, err := r.g.store.AppendMessage(r.ctx, session.Message{
		SessionID: r.sessionID,
		Role:      role,
		Type:      typ,
		Content:   content,
		Data:      data,
	})
	if err != nil {
		log.Printf("generator: session=%s append %s message: %v", r.sessionID, typ, err)
		return
	}
	r.emitMessage(m)
}

// sayJSON records v as an assistant message whose content is the indented
// JSON and whose data is the compact JSON, which it returns.
func (r *run) sayJSON(typ session.MessageType, v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	pretty, _ := json.MarshalIndent(v, "", "  ")
	r.say(session.RoleAssistant, typ, string(pretty), raw)
	return raw
}

func (r *run) emitMessage(m session.Message) {
	payload := map[string]any{
		"id":          m.ID,
		"role":        string(m.Role),
		"messageType": string(m.Type),
		"content":     m.Content,
		"createdAt":   m.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if len(m.Data) > 0 {
		var data any
		if err := json.Unmarshal(m.Data, &data); err == nil {
			payload["data"] = data
		}
	}
	ui.Emit(r.ctx, ui.Event{Type: ui.EventTypeMessage, SessionID: r.sessionID, Payload: payload})
}

// userFacingError maps a failure during phase to the assistant message
// shown in chat.
func userFacingError(err error, phase string) string {
	switch {
	case errors.Is(err, errAppNotFound):
		return msgErrInvalidAppID
	case errors.Is(err, ErrLLM):
		return msgErrLLMFailed
	case phase == llm.PhaseMockData:
		return msgErrMockDataFailed
	case errors.Is(err, ErrInvalidSchema), errors.Is(err, ErrInvalidOutput):
		return msgErrInvalidWidget
	}
	return msgErrGeneric
}
