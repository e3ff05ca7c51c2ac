package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It is thread-safe.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]Message
	apps     map[string]AppMetadata
	clock    clock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
		apps:     make(map[string]AppMetadata),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, sess Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if _, exists := s.sessions[sess.ID]; exists {
		return Session{}, fmt.Errorf("%w: %s", ErrAlreadyExists, sess.ID)
	}
	if sess.Status == "" {
		sess.Status = StatusPending
	}
	now := s.clock.now()
	sess.CreatedAt, sess.UpdatedAt = now, now
	s.sessions[sess.ID] = sess.clone()
	return sess, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return Session{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return sess.clone(), nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	next := sess.clone()
	fn(&next)
	next.ID, next.CreatedAt = sess.ID, sess.CreatedAt
	next.UpdatedAt = s.clock.now()
	s.sessions[id] = next.clone()
	return next, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[m.SessionID]; !ok {
		return Message{}, fmt.Errorf("%w: session %s", ErrNotFound, m.SessionID)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.clock.now()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m.clone())
	return m, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return cloneMessages(s.messages[sessionID]), nil
}

func (s *MemoryStore) GetApp(_ context.Context, id string) (AppMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[strings.TrimSpace(id)]
	if !ok {
		return AppMetadata{}, fmt.Errorf("%w: app %s", ErrNotFound, id)
	}
	return app.clone(), nil
}

func (s *MemoryStore) PutApp(_ context.Context, app AppMetadata) error {
	app.ID = strings.TrimSpace(app.ID)
	if app.ID == "" {
		return fmt.Errorf("app id is required")
	}
	s.mu.Lock()
	s.apps[app.ID] = app.clone()
	s.mu.Unlock()
	return nil
}

// clock hands out strictly increasing timestamps so that ordering by
// creation time is stable. Callers hold the store lock.
type clock struct {
	last time.Time
}

func (c *clock) now() time.Time {
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
