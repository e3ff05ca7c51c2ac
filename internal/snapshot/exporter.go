package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"widgetgen/internal/preview"
	"widgetgen/internal/session"
	"widgetgen/internal/ui"
	"widgetgen/internal/util/jsonutil"
)

const (
	FileSchema = "schema.json"
	FileData   = "data.json"
	FileRender = "render.json"
)

var ErrNotReady = errors.New("session has no completed widget")

// File is one exported object. URL is set when the store can sign links.
type File struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	URL  string `json:"url,omitempty"`
}

type Manifest struct {
	SessionID  string    `json:"sessionId"`
	Files      []File    `json:"files"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Exporter writes the artifacts of a completed session to a Store.
type Exporter struct {
	sessions session.Store
	renderer *preview.Service
	store    Store
	now      func() time.Time
}

func NewExporter(sessions session.Store, renderer *preview.Service, store Store) *Exporter {
	return &Exporter{sessions: sessions, renderer: renderer, store: store, now: time.Now}
}

// Export writes schema.json, data.json and render.json for sessionID.
func (e *Exporter) Export(ctx context.Context, sessionID string) (Manifest, error) {
	sess, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Manifest{}, err
	}
	if sess.Status != session.StatusCompleted || len(sess.Schema) == 0 {
		return Manifest{}, fmt.Errorf("%w: %s", ErrNotReady, sess.ID)
	}

	data, err := dataModel(sess.MockData)
	if err != nil {
		return Manifest{}, err
	}
	res, err := e.renderer.Render(ctx, sess.Schema, data)
	if err != nil {
		return Manifest{}, fmt.Errorf("render: %w", err)
	}
	render, err := jsonutil.MarshalNoEscapeIndent(renderDocument(res), "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	schema, err := indent(sess.Schema)
	if err != nil {
		return Manifest{}, err
	}
	dataOut, err := indent(data)
	if err != nil {
		return Manifest{}, err
	}

	m := Manifest{SessionID: sess.ID, ExportedAt: e.now().UTC()}
	for _, f := range []struct {
		name string
		body []byte
	}{
		{FileSchema, schema},
		{FileData, dataOut},
		{FileRender, render},
	} {
		if err := e.store.Put(ctx, sess.ID, f.name, f.body); err != nil {
			return Manifest{}, fmt.Errorf("put %s: %w", f.name, err)
		}
		file := File{Name: f.name, Size: len(f.body)}
		if signer, ok := e.store.(URLSigner); ok {
			if u, err := signer.GetURL(ctx, sess.ID, f.name); err == nil {
				file.URL = u
			} else {
				log.Printf("snapshot: sign url session=%s name=%s: %v", sess.ID, f.name, err)
			}
		}
		m.Files = append(m.Files, file)
	}
	log.Printf("snapshot: exported session=%s files=%d", sess.ID, len(m.Files))
	return m, nil
}

// dataModel extracts the "data" member of stored mock data.
func dataModel(mock json.RawMessage) ([]byte, error) {
	if len(mock) == 0 {
		return []byte("null"), nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(mock, &env); err != nil {
		return nil, fmt.Errorf("decode mock data: %w", err)
	}
	if len(env.Data) == 0 {
		return []byte("null"), nil
	}
	return env.Data, nil
}

func renderDocument(res preview.Result) map[string]any {
	issues := make([]map[string]any, 0, len(res.Issues))
	for _, is := range res.Issues {
		issues = append(issues, map[string]any{
			"componentId": is.ComponentID,
			"code":        is.Code,
			"message":     is.Message,
		})
	}
	return map[string]any{
		"root":   ui.ToMap(res.Root),
		"issues": issues,
	}
}

func indent(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return jsonutil.MarshalNoEscapeIndent(v, "", "  ")
}
