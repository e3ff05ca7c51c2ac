package session

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	SessionMaxEntries int
	MessageTTL        time.Duration
	MessageMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SessionMaxEntries: 1024,
		MessageTTL:        2 * time.Minute,
		MessageMaxEntries: 512,
	}
}

// CachedStore is a read-through cache over another Store. Writes go to the
// origin first and then refresh or drop the cached entries they touch.
type CachedStore struct {
	origin   Store
	sessions *lru.Cache[string, Session]
	messages *expirable.LRU[string, []Message]
}

func NewCachedStore(origin Store, cfg CacheConfig) (*CachedStore, error) {
	def := DefaultCacheConfig()
	if cfg.SessionMaxEntries <= 0 {
		cfg.SessionMaxEntries = def.SessionMaxEntries
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = def.MessageTTL
	}
	if cfg.MessageMaxEntries <= 0 {
		cfg.MessageMaxEntries = def.MessageMaxEntries
	}
	sessions, err := lru.New[string, Session](cfg.SessionMaxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedStore{
		origin:   origin,
		sessions: sessions,
		messages: expirable.NewLRU[string, []Message](cfg.MessageMaxEntries, nil, cfg.MessageTTL),
	}, nil
}

func (s *CachedStore) CreateSession(ctx context.Context, sess Session) (Session, error) {
	created, err := s.origin.CreateSession(ctx, sess)
	if err != nil {
		return Session{}, err
	}
	s.sessions.Add(created.ID, created.clone())
	return created, nil
}

func (s *CachedStore) GetSession(ctx context.Context, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if cached, ok := s.sessions.Get(id); ok {
		return cached.clone(), nil
	}
	sess, err := s.origin.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s.sessions.Add(id, sess.clone())
	return sess, nil
}

func (s *CachedStore) UpdateSession(ctx context.Context, id string, fn func(*Session)) (Session, error) {
	id = strings.TrimSpace(id)
	updated, err := s.origin.UpdateSession(ctx, id, fn)
	if err != nil {
		s.sessions.Remove(id)
		return Session{}, err
	}
	s.sessions.Add(id, updated.clone())
	return updated, nil
}

// ListSessions is not cached; listings change with every new session.
func (s *CachedStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	return s.origin.ListSessions(ctx, limit)
}

func (s *CachedStore) AppendMessage(ctx context.Context, m Message) (Message, error) {
	appended, err := s.origin.AppendMessage(ctx, m)
	s.messages.Remove(m.SessionID)
	if err != nil {
		return Message{}, err
	}
	return appended, nil
}

func (s *CachedStore) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	if cached, ok := s.messages.Get(sessionID); ok {
		return cloneMessages(cached), nil
	}
	msgs, err := s.origin.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.messages.Add(sessionID, cloneMessages(msgs))
	return msgs, nil
}

func (s *CachedStore) GetApp(ctx context.Context, id string) (AppMetadata, error) {
	return s.origin.GetApp(ctx, id)
}

func (s *CachedStore) PutApp(ctx context.Context, app AppMetadata) error {
	return s.origin.PutApp(ctx, app)
}
