package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQL("sqlite:" + filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCachedStore(t *testing.T) Store {
	t.Helper()
	s, err := NewCachedStore(NewMemoryStore(), CacheConfig{})
	require.NoError(t, err)
	return s
}

// Every implementation must pass the same contract.
func TestStoreContract(t *testing.T) {
	impls := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
		"cached": newCachedStore,
	}
	for name, open := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("sessions", func(t *testing.T) { testSessions(t, open(t)) })
			t.Run("messages", func(t *testing.T) { testMessages(t, open(t)) })
			t.Run("apps", func(t *testing.T) { testApps(t, open(t)) })
		})
	}
}

func testSessions(t *testing.T, s Store) {
	ctx := context.Background()

	created, err := s.CreateSession(ctx, Session{Mode: ModeDescription, InputContent: "step counter", UIStyle: "modern-minimal"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := s.UpdateSession(ctx, created.ID, func(sess *Session) {
		sess.Status = StatusCompleted
		sess.MockData = json.RawMessage(`{"data":{},"meta":{}}`)
		sess.Schema = json.RawMessage(`{"components":[],"root":"r"}`)
		sess.App = &AppMetadata{ID: "app-1", Title: "Steps", OSSystem: []string{"ios"}}
		sess.ID = "hijack"
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err = s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.JSONEq(t, `{"data":{},"meta":{}}`, string(got.MockData))
	require.NotNil(t, got.App)
	assert.Equal(t, []string{"ios"}, got.App.OSSystem)

	_, err = s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateSession(ctx, "missing", func(*Session) {})
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 0; i < 3; i++ {
		_, err := s.CreateSession(ctx, Session{Mode: ModeAppID, InputContent: fmt.Sprintf("app-%d", i)})
		require.NoError(t, err)
	}
	list, err := s.ListSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "app-2", list[0].InputContent)
	assert.Equal(t, "app-1", list[1].InputContent)

	all, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testMessages(t *testing.T, s Store) {
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, Session{Mode: ModeDescription, InputContent: "x"})
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, Message{SessionID: "missing", Role: RoleUser, Type: MessageInput})
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	contents := []string{"x", "generating", "done"}
	for i, c := range contents {
		role := RoleAssistant
		if i == 0 {
			role = RoleUser
		}
		_, err := s.AppendMessage(ctx, Message{SessionID: sess.ID, Role: role, Type: MessageText, Content: c})
		require.NoError(t, err)
	}
	_, err = s.AppendMessage(ctx, Message{SessionID: sess.ID, Role: RoleAssistant, Type: MessageMockData, Content: "{}", Data: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)

	msgs, err := s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i].Content)
	}
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, MessageMockData, msgs[3].Type)
	assert.JSONEq(t, `{"a":1}`, string(msgs[3].Data))
	assert.NotEmpty(t, msgs[3].ID)

	// Returned slices are copies.
	msgs[0].Content = "mutated"
	again, err := s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again[0].Content)

	_, err = s.ListMessages(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testApps(t *testing.T, s Store) {
	ctx := context.Background()
	app := AppMetadata{
		ID:              "com.example.steps",
		Title:           "Steps",
		Description:     "Counts steps",
		OSSystem:        []string{"ios", "android"},
		Category:        []string{"health"},
		GeometricDomain: []string{},
		Price:           1.99,
		Currency:        "USD",
		Lang:            "en",
		WordCount:       120,
	}
	require.NoError(t, s.PutApp(ctx, app))
	got, err := s.GetApp(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app, got)

	app.Title = "Steps Pro"
	require.NoError(t, s.PutApp(ctx, app))
	got, err = s.GetApp(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steps Pro", got.Title)

	_, err = s.GetApp(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.PutApp(ctx, AppMetadata{}))
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn, driver, source string
	}{
		{"postgres://u:p@localhost/db", "pgx", "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", "pgx", "postgresql://localhost/db"},
		{"sqlite:///tmp/a.db", "sqlite", "/tmp/a.db"},
		{"sqlite:file::memory:", "sqlite", "file::memory:"},
		{"widgets.db", "sqlite", "widgets.db"},
	}
	for _, tc := range cases {
		driver, _, source, err := parseDSN(tc.dsn)
		require.NoError(t, err, tc.dsn)
		assert.Equal(t, tc.driver, driver, tc.dsn)
		assert.Equal(t, tc.source, source, tc.dsn)
	}
	_, _, _, err := parseDSN("mysql://x")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" appId ")
	assert.True(t, ok)
	assert.Equal(t, ModeAppID, m)
	_, ok = ParseMode("url")
	assert.False(t, ok)
}

func TestMemoryStoreRejectsDuplicateSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.CreateSession(ctx, Session{ID: "dup", Mode: ModeDescription})
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, Session{ID: "dup", Mode: ModeDescription})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

type countingStore struct {
	Store
	gets, lists int
}

func (c *countingStore) GetSession(ctx context.Context, id string) (Session, error) {
	c.gets++
	return c.Store.GetSession(ctx, id)
}

func (c *countingStore) ListMessages(ctx context.Context, id string) ([]Message, error) {
	c.lists++
	return c.Store.ListMessages(ctx, id)
}

func TestCachedStoreReadsThrough(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{Store: NewMemoryStore()}
	s, err := NewCachedStore(origin, DefaultCacheConfig())
	require.NoError(t, err)

	sess, err := s.CreateSession(ctx, Session{Mode: ModeDescription, InputContent: "x"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.GetSession(ctx, sess.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, origin.gets, "created sessions are served from cache")

	_, err = s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	_, err = s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, origin.lists)

	_, err = s.AppendMessage(ctx, Message{SessionID: sess.ID, Role: RoleUser, Type: MessageInput, Content: "x"})
	require.NoError(t, err)
	msgs, err := s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 2, origin.lists, "append invalidates the transcript")

	_, err = s.UpdateSession(ctx, sess.ID, func(sess *Session) { sess.Status = StatusFailed; sess.Error = "boom" })
	require.NoError(t, err)
	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 0, origin.gets)
}
