package rpc

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/ui"
)

const (
	previewWSWriteWait = 10 * time.Second
	previewWSPongWait  = 60 * time.Second
	previewWSPingEvery = (previewWSPongWait * 9) / 10
)

var previewWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type previewWSInbound struct {
	Type string `json:"type"`
}

// HandlePreviewWS streams preview events of one session:
// GET /ws/preview?session_id=<id>. Clients may send {"type":"ping"} and
// {"type":"sync"}; sync replays the session's current status and render.
func (h *WidgetHandler) HandlePreviewWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	conn, err := previewWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(previewWSPongWait)); err != nil {
		log.Printf("preview ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(previewWSPongWait))
	})

	writeCh := make(chan map[string]any, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(previewWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(previewWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(previewWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events, err := h.hub.Subscribe(ctx, sessionID)
	if err != nil {
		pushPreviewWS(writeCh, wsError("invalid_argument", err.Error()))
		cancel()
		<-writerDone
		return
	}
	pushPreviewWS(writeCh, map[string]any{"type": "subscribed", "sessionId": sessionID})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				pushPreviewWS(writeCh, preview.Wire(evt))
			}
		}
	}()

	for {
		var in previewWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "":
			pushPreviewWS(writeCh, wsError("invalid_argument", "type is required"))
		case "ping":
			pushPreviewWS(writeCh, map[string]any{"type": "pong"})
		case "sync":
			for _, evt := range h.syncEvents(ctx, sessionID) {
				pushPreviewWS(writeCh, preview.Wire(evt))
			}
		default:
			pushPreviewWS(writeCh, wsError("invalid_argument", "unsupported type: "+in.Type))
		}
	}
}

// syncEvents rebuilds the events a late subscriber missed: the session
// status and, once a schema exists, its render.
func (h *WidgetHandler) syncEvents(ctx context.Context, sessionID string) []ui.Event {
	sess, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return []ui.Event{{Type: ui.EventTypeError, SessionID: sessionID, Message: err.Error()}}
	}
	out := []ui.Event{{
		Type:      ui.EventTypeStatus,
		SessionID: sessionID,
		Payload:   map[string]any{"status": string(sess.Status), "error": sess.Error},
	}}
	if len(sess.Schema) == 0 {
		return out
	}
	res, err := h.preview.Render(ctx, sess.Schema, mockDataModel(sess))
	if err != nil {
		return append(out, ui.Event{Type: ui.EventTypeError, SessionID: sessionID, Message: err.Error()})
	}
	node := res.Root
	return append(out, ui.Event{Type: ui.EventTypeRender, SessionID: sessionID, Node: &node})
}

func mockDataModel(sess session.Session) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if len(sess.MockData) == 0 || json.Unmarshal(sess.MockData, &env) != nil {
		return nil
	}
	return env.Data
}

func wsError(code, msg string) map[string]any {
	return map[string]any{"type": "error", "code": code, "message": msg}
}

func pushPreviewWS(writeCh chan map[string]any, out map[string]any) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
