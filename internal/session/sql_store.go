package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	tableSessions = "chat_sessions"
	tableMessages = "chat_messages"
	tableApps     = "app_metadata"
)

var sessionColumns = []string{
	"id", "mode", "input_content", "ui_style", "app_id", "app_metadata",
	"status", "error", "mock_data", "schema_json", "created_at", "updated_at",
}

var messageColumns = []string{"id", "session_id", "role", "message_type", "content", "data", "created_at"}

var appColumns = []string{
	"id", "title", "description", "os_system", "category", "geometric_domain",
	"price", "currency", "lang", "word_count",
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS chat_sessions (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    input_content TEXT NOT NULL,
    ui_style TEXT NOT NULL DEFAULT '',
    app_id TEXT NOT NULL DEFAULT '',
    app_metadata TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    mock_data TEXT NOT NULL DEFAULT '',
    schema_json TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_created_at ON chat_sessions(created_at)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    message_type TEXT NOT NULL,
    content TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS app_metadata (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    os_system TEXT NOT NULL DEFAULT '[]',
    category TEXT NOT NULL DEFAULT '[]',
    geometric_domain TEXT NOT NULL DEFAULT '[]',
    price DOUBLE PRECISION NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT '',
    lang TEXT NOT NULL DEFAULT '',
    word_count BIGINT NOT NULL DEFAULT 0
)`,
}

// SQLStore persists sessions in Postgres (pgx) or SQLite (modernc). Queries
// are built with ent's SQL builder so one code path serves both dialects.
type SQLStore struct {
	db      *sql.DB
	dialect string

	schemaOnce sync.Once
	schemaErr  error

	mu    sync.Mutex
	clock clock
}

// OpenSQL opens a store for dsn. postgres:// and postgresql:// URLs use pgx;
// "sqlite:<path>", "file:..." and paths ending in .db use SQLite.
func OpenSQL(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	driver, d, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if d == dialect.SQLite {
		// One connection keeps in-memory databases shared and writes serialized.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	s := NewSQLStore(db, d)
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func parseDSN(dsn string) (driver, d, source string, err error) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "pgx", dialect.Postgres, dsn, nil
	case strings.HasPrefix(lower, "sqlite:"):
		return "sqlite", dialect.SQLite, strings.TrimPrefix(dsn[len("sqlite:"):], "//"), nil
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return "sqlite", dialect.SQLite, dsn, nil
	}
	return "", "", "", fmt.Errorf("unsupported database url %q", dsn)
}

// NewSQLStore wraps an open database. d is dialect.Postgres or dialect.SQLite.
func NewSQLStore(db *sql.DB, d string) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = fmt.Errorf("ensure schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *SQLStore) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.now()
}

func (s *SQLStore) CreateSession(ctx context.Context, sess Session) (Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Session{}, err
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Status == "" {
		sess.Status = StatusPending
	}
	now := s.now()
	sess.CreatedAt, sess.UpdatedAt = now, now
	vals, err := sessionValues(sess)
	if err != nil {
		return Session{}, err
	}
	query, args := s.builder().Insert(tableSessions).Columns(sessionColumns...).Values(vals...).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Session{}, err
	}
	return s.getSession(ctx, s.db, strings.TrimSpace(id))
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getSession(ctx context.Context, q queryer, id string) (Session, error) {
	query, args := s.builder().Select(sessionColumns...).
		From(s.builder().Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()
	sess, err := scanSession(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return sess, err
}

func (s *SQLStore) UpdateSession(ctx context.Context, id string, fn func(*Session)) (Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Session{}, err
	}
	id = strings.TrimSpace(id)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := s.getSession(ctx, tx, id)
	if err != nil {
		return Session{}, err
	}
	next := cur.clone()
	fn(&next)
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	next.UpdatedAt = s.now()

	vals, err := sessionValues(next)
	if err != nil {
		return Session{}, err
	}
	upd := s.builder().Update(tableSessions)
	// Skip id and created_at.
	for i, col := range sessionColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		upd.Set(col, vals[i])
	}
	query, args := upd.Where(entsql.EQ("id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return next, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query, args := s.builder().Select(sessionColumns...).
		From(s.builder().Table(tableSessions)).
		OrderBy(entsql.Desc("created_at")).
		Limit(limit).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendMessage(ctx context.Context, m Message) (Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Message{}, err
	}
	if _, err := s.GetSession(ctx, m.SessionID); err != nil {
		return Message{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.now()
	query, args := s.builder().Insert(tableMessages).
		Columns(messageColumns...).
		Values(m.ID, m.SessionID, string(m.Role), string(m.Type), m.Content, string(m.Data), m.CreatedAt.UnixMicro()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

func (s *SQLStore) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	query, args := s.builder().Select(messageColumns...).
		From(s.builder().Table(tableMessages)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("created_at")).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			m         Message
			role, typ string
			data      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &typ, &m.Content, &data, &createdAt); err != nil {
			return nil, err
		}
		m.Role, m.Type = Role(role), MessageType(typ)
		m.Data = rawOrNil(data)
		m.CreatedAt = time.UnixMicro(createdAt).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetApp(ctx context.Context, id string) (AppMetadata, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return AppMetadata{}, err
	}
	id = strings.TrimSpace(id)
	query, args := s.builder().Select(appColumns...).
		From(s.builder().Table(tableApps)).
		Where(entsql.EQ("id", id)).
		Query()
	var (
		app             AppMetadata
		osSys, cat, geo string
		wordCount       int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&app.ID, &app.Title, &app.Description, &osSys, &cat, &geo,
		&app.Price, &app.Currency, &app.Lang, &wordCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return AppMetadata{}, fmt.Errorf("%w: app %s", ErrNotFound, id)
	}
	if err != nil {
		return AppMetadata{}, err
	}
	app.WordCount = int(wordCount)
	app.OSSystem = stringList(osSys)
	app.Category = stringList(cat)
	app.GeometricDomain = stringList(geo)
	return app, nil
}

func (s *SQLStore) PutApp(ctx context.Context, app AppMetadata) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	app.ID = strings.TrimSpace(app.ID)
	if app.ID == "" {
		return fmt.Errorf("app id is required")
	}
	query, args := s.builder().Insert(tableApps).
		Columns(appColumns...).
		Values(app.ID, app.Title, app.Description,
			listText(app.OSSystem), listText(app.Category), listText(app.GeometricDomain),
			app.Price, app.Currency, app.Lang, int64(app.WordCount)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put app: %w", err)
	}
	return nil
}

func sessionValues(sess Session) ([]any, error) {
	app := ""
	if sess.App != nil {
		b, err := json.Marshal(sess.App)
		if err != nil {
			return nil, err
		}
		app = string(b)
	}
	return []any{
		sess.ID, string(sess.Mode), sess.InputContent, sess.UIStyle, sess.AppID, app,
		string(sess.Status), sess.Error, string(sess.MockData), string(sess.Schema),
		sess.CreatedAt.UnixMicro(), sess.UpdatedAt.UnixMicro(),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess                  Session
		mode, status          string
		app, mockData, schema string
		createdAt, updatedAt  int64
	)
	err := row.Scan(&sess.ID, &mode, &sess.InputContent, &sess.UIStyle, &sess.AppID, &app,
		&status, &sess.Error, &mockData, &schema, &createdAt, &updatedAt)
	if err != nil {
		return Session{}, err
	}
	sess.Mode, sess.Status = Mode(mode), Status(status)
	if app != "" {
		var meta AppMetadata
		if err := json.Unmarshal([]byte(app), &meta); err != nil {
			return Session{}, fmt.Errorf("decode app metadata: %w", err)
		}
		sess.App = &meta
	}
	sess.MockData = rawOrNil(mockData)
	sess.Schema = rawOrNil(schema)
	sess.CreatedAt = time.UnixMicro(createdAt).UTC()
	sess.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return sess, nil
}

func rawOrNil(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func listText(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func stringList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
