package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"widgetgen/internal/generator"
	"widgetgen/internal/llm"
	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/snapshot"
	"widgetgen/internal/styles"
)

type testEnv struct {
	server   *httptest.Server
	sessions *session.MemoryStore
	handler  *WidgetHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sessions := session.NewMemoryStore()
	reg := styles.Default()
	previewSvc := preview.NewService(nil, preview.DefaultConfig())
	hub := preview.NewHub(64)
	gen := generator.New(llm.NewFakeClient(), reg, sessions)
	exporter := snapshot.NewExporter(sessions, previewSvc, snapshot.NewMemoryStore())
	h := NewWidgetHandler(gen, sessions, previewSvc, hub, reg, exporter)

	mux := http.NewServeMux()
	mux.Handle(NewWidgetServiceHandler(h, connect.WithInterceptors(NewTracingInterceptor())))
	mux.HandleFunc("/ws/preview", h.HandlePreviewWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, sessions: sessions, handler: h}
}

func (e *testEnv) call(t *testing.T, procedure string, body map[string]any) (map[string]any, error) {
	t.Helper()
	msg, err := structpb.NewStruct(body)
	require.NoError(t, err)
	client := connect.NewClient[structpb.Struct, structpb.Struct](e.server.Client(), e.server.URL+procedure)
	res, err := client.CallUnary(context.Background(), connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg.AsMap(), nil
}

const textSchema = `{"components":[{"id":"root","component":{"Text":{"text":{"path":"/city"}}}}],"root":"root"}`

func TestValidate(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.call(t, ValidateProcedure, map[string]any{"schema": textSchema})
	require.NoError(t, err)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, "root", out["root"])

	out, err = env.call(t, ValidateProcedure, map[string]any{"schema": map[string]any{"components": []any{}, "root": "x"}})
	require.NoError(t, err)
	assert.Equal(t, false, out["valid"])
	assert.Equal(t, `Root component "x" not found in components`, out["error"])
	assert.Equal(t, "root", out["field"])

	_, err = env.call(t, ValidateProcedure, map[string]any{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.call(t, RenderProcedure, map[string]any{
		"schema": textSchema,
		"data":   map[string]any{"city": "Osaka"},
	})
	require.NoError(t, err)
	node, ok := out["node"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", node["type"])
	assert.Equal(t, "Osaka", node["text"].(map[string]any)["text"])
	assert.Equal(t, false, out["cached"])

	_, err = env.call(t, RenderProcedure, map[string]any{"schema": `{"components":[]}`})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestGenerateGetAndExport(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.call(t, GenerateProcedure, map[string]any{
		"mode":         "description",
		"inputContent": "step counter",
		"uiStyle":      "fitness-sport",
	})
	require.NoError(t, err)
	sess := out["session"].(map[string]any)
	assert.Equal(t, "completed", sess["status"])
	id := sess["id"].(string)
	require.NotEmpty(t, id)
	assert.Len(t, out["messages"], 5)

	got, err := env.call(t, GetSessionProcedure, map[string]any{"sessionId": id})
	require.NoError(t, err)
	assert.Equal(t, id, got["session"].(map[string]any)["id"])

	list, err := env.call(t, ListSessionsProcedure, map[string]any{"limit": 10})
	require.NoError(t, err)
	items := list["sessions"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)["firstMessage"].(map[string]any)
	assert.Equal(t, "step counter", first["content"])
	assert.Equal(t, "input", first["messageType"])

	manifest, err := env.call(t, ExportProcedure, map[string]any{"sessionId": id})
	require.NoError(t, err)
	assert.Len(t, manifest["files"], 3)

	refined, err := env.call(t, RefineProcedure, map[string]any{"sessionId": id, "prompt": "make it larger"})
	require.NoError(t, err)
	assert.Equal(t, "completed", refined["session"].(map[string]any)["status"])
}

func TestGenerateErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.call(t, GenerateProcedure, map[string]any{"mode": "sideways", "inputContent": "x", "uiStyle": "material-you"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.call(t, GenerateProcedure, map[string]any{"mode": "description"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.call(t, GetSessionProcedure, map[string]any{"sessionId": "missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestGenerateAsyncRejectsBeforeStarting(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.call(t, GenerateProcedure, map[string]any{
		"mode":         "description",
		"inputContent": "step counter",
		"sessionId":    "async-no-style",
		"async":        true,
	})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = env.sessions.GetSession(context.Background(), "async-no-style")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = env.call(t, GenerateProcedure, map[string]any{
		"mode":         "sideways",
		"inputContent": "x",
		"uiStyle":      "material-you",
		"async":        true,
	})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	existing, err := env.sessions.CreateSession(context.Background(), session.Session{Mode: session.ModeDescription, InputContent: "x", UIStyle: "material-you"})
	require.NoError(t, err)
	_, err = env.call(t, GenerateProcedure, map[string]any{
		"mode":         "description",
		"inputContent": "x",
		"uiStyle":      "material-you",
		"sessionId":    existing.ID,
		"async":        true,
	})
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))
}

func TestExportPendingSession(t *testing.T) {
	env := newTestEnv(t)
	sess, err := env.sessions.CreateSession(context.Background(), session.Session{Mode: session.ModeDescription, InputContent: "x", UIStyle: "material-you"})
	require.NoError(t, err)

	_, err = env.call(t, ExportProcedure, map[string]any{"sessionId": sess.ID})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestListStyles(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.call(t, ListStylesProcedure, map[string]any{})
	require.NoError(t, err)
	presets := out["presets"].([]any)
	require.NotEmpty(t, presets)
	for _, p := range presets {
		m := p.(map[string]any)
		assert.Equal(t, true, m["active"])
		assert.NotContains(t, m, "prompt")
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == typ {
			return msg
		}
	}
}

func TestPreviewWebsocketStreamsRun(t *testing.T) {
	env := newTestEnv(t)
	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/preview?session_id=live-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readUntil(t, conn, "subscribed")

	_, err = env.call(t, GenerateProcedure, map[string]any{
		"sessionId":    "live-1",
		"mode":         "description",
		"inputContent": "step counter",
		"uiStyle":      "material-you",
	})
	require.NoError(t, err)

	render := readUntil(t, conn, "render")
	assert.Equal(t, "live-1", render["sessionId"])
	assert.Contains(t, render, "node")
	status := readUntil(t, conn, "status")
	assert.Equal(t, "completed", status["payload"].(map[string]any)["status"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	readUntil(t, conn, "pong")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "sync"}))
	synced := readUntil(t, conn, "status")
	assert.Equal(t, "completed", synced["payload"].(map[string]any)["status"])
	readUntil(t, conn, "render")
}

func TestPreviewWebsocketRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	res, err := http.Get(env.server.URL + "/ws/preview")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
