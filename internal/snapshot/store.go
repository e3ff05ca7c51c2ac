// Package snapshot exports finished widgets (schema, data model and render
// tree) to object storage.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("snapshot not found")

// Store keeps snapshot files grouped by session id.
type Store interface {
	Put(ctx context.Context, sessionID, name string, content []byte) error
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}

// URLSigner is implemented by stores that can hand out download links.
type URLSigner interface {
	GetURL(ctx context.Context, sessionID, name string) (string, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]map[string][]byte{}}
}

func (m *MemoryStore) Put(_ context.Context, sessionID, name string, content []byte) error {
	sessionID, name, err := normalizeKey(sessionID, name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[sessionID] == nil {
		m.files[sessionID] = map[string][]byte{}
	}
	m.files[sessionID][name] = append([]byte(nil), content...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID, name string) ([]byte, error) {
	sessionID, name, err := normalizeKey(sessionID, name)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[sessionID][name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files[sessionID]))
	for name := range m.files[sessionID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func normalizeKey(sessionID, name string) (string, string, error) {
	sessionID = strings.TrimSpace(sessionID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if sessionID == "" {
		return "", "", fmt.Errorf("session_id is required")
	}
	if name == "" {
		return "", "", fmt.Errorf("name is required")
	}
	return sessionID, name, nil
}
