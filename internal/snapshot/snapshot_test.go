package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetgen/internal/preview"
	"widgetgen/internal/session"
)

const schemaJSON = `{"components":[{"id":"root","component":{"Text":{"text":{"path":"/city"}}}}],"root":"root"}`

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "s1", "/b.json", []byte("b")))
	require.NoError(t, s.Put(ctx, "s1", "a.json", []byte("a")))

	got, err := s.Get(ctx, "s1", "b.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	_, err = s.Get(ctx, "s1", "c.json")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)

	require.Error(t, s.Put(ctx, "", "a.json", nil))
	require.Error(t, s.Put(ctx, "s1", " ", nil))
}

func completedSession(t *testing.T, store session.Store) session.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := store.CreateSession(ctx, session.Session{Mode: session.ModeDescription, InputContent: "x", UIStyle: "material-you"})
	require.NoError(t, err)
	sess, err = store.UpdateSession(ctx, sess.ID, func(s *session.Session) {
		s.MockData = json.RawMessage(`{"data":{"city":"Osaka"},"meta":{}}`)
		s.Schema = json.RawMessage(schemaJSON)
		s.Status = session.StatusCompleted
	})
	require.NoError(t, err)
	return sess
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore()
	files := NewMemoryStore()
	exp := NewExporter(sessions, preview.NewService(nil, preview.DefaultConfig()), files)
	exp.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	sess := completedSession(t, sessions)
	m, err := exp.Export(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, m.SessionID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), m.ExportedAt)
	require.Len(t, m.Files, 3)
	assert.Equal(t, FileSchema, m.Files[0].Name)
	assert.Empty(t, m.Files[0].URL)

	names, err := files.List(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{FileData, FileRender, FileSchema}, names)

	data, err := files.Get(ctx, sess.ID, FileData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Osaka"}`, string(data))

	render, err := files.Get(ctx, sess.ID, FileRender)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(render, &doc))
	assert.Contains(t, string(render), "Osaka")
	assert.Empty(t, doc["issues"])
}

func TestExportRequiresCompletedSession(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore()
	exp := NewExporter(sessions, preview.NewService(nil, preview.DefaultConfig()), NewMemoryStore())

	sess, err := sessions.CreateSession(ctx, session.Session{Mode: session.ModeDescription, InputContent: "x", UIStyle: "material-you"})
	require.NoError(t, err)
	_, err = exp.Export(ctx, sess.ID)
	require.ErrorIs(t, err, ErrNotReady)

	_, err = exp.Export(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)
}

type signingStore struct{ *MemoryStore }

func (signingStore) GetURL(_ context.Context, sessionID, name string) (string, error) {
	return "https://example.test/" + sessionID + "/" + name, nil
}

func TestExportSignsURLs(t *testing.T) {
	sessions := session.NewMemoryStore()
	exp := NewExporter(sessions, preview.NewService(nil, preview.DefaultConfig()), signingStore{NewMemoryStore()})
	sess := completedSession(t, sessions)

	m, err := exp.Export(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/"+sess.ID+"/render.json", m.Files[2].URL)
}

func TestS3StoreConfigValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	require.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	require.Error(t, err)

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "widgets", Prefix: "/exports/"})
	require.NoError(t, err)
	assert.Equal(t, "exports/s1/schema.json", s.objectKey("s1", "schema.json"))
	assert.Equal(t, "exports/s1/", s.objectKey("s1", ""))
	assert.Equal(t, "application/json", contentType("schema.json"))
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	d := NewDirStore(t.TempDir())

	names, err := d.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, d.Put(ctx, "s1", "schema.json", []byte("{}")))
	require.NoError(t, d.Put(ctx, "s1", "nested/render.json", []byte("[]")))

	got, err := d.Get(ctx, "s1", "schema.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	_, err = d.Get(ctx, "s1", "missing.json")
	require.ErrorIs(t, err, ErrNotFound)

	names, err = d.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/render.json", "schema.json"}, names)

	require.Error(t, d.Put(ctx, "s1", "../escape.json", nil))
}
