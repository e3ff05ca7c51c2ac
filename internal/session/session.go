// Package session persists generation sessions, their chat transcript and
// the app catalog used by appId mode.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("session: not found")
	ErrAlreadyExists = errors.New("session: already exists")
)

type Mode string

const (
	ModeAppID       Mode = "appId"
	ModeDescription Mode = "description"
)

// ParseMode accepts the two generation modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeAppID:
		return ModeAppID, true
	case ModeDescription:
		return ModeDescription, true
	}
	return "", false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageType string

const (
	MessageInput       MessageType = "input"
	MessageText        MessageType = "text"
	MessageMockData    MessageType = "mock-data"
	MessageAppMetadata MessageType = "app-metadata"
	MessageWidget      MessageType = "widget-schema"
	MessageError       MessageType = "error"
)

type AppMetadata struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	OSSystem        []string `json:"osSystem"`
	Category        []string `json:"category"`
	GeometricDomain []string `json:"geometricDomain"`
	Price           float64  `json:"price"`
	Currency        string   `json:"currency"`
	Lang            string   `json:"lang"`
	WordCount       int      `json:"wordCount"`
}

type Session struct {
	ID           string          `json:"id"`
	Mode         Mode            `json:"mode"`
	InputContent string          `json:"inputContent"`
	UIStyle      string          `json:"uiStyle"`
	AppID        string          `json:"appId,omitempty"`
	App          *AppMetadata    `json:"appMetadata,omitempty"`
	Status       Status          `json:"status"`
	Error        string          `json:"error,omitempty"`
	MockData     json.RawMessage `json:"mockData,omitempty"`
	Schema       json.RawMessage `json:"schema,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Role      Role            `json:"role"`
	Type      MessageType     `json:"messageType"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DefaultListLimit applies when ListSessions is called with limit <= 0.
const DefaultListLimit = 50

// Store persists sessions, messages and app metadata. Unknown ids yield
// ErrNotFound.
type Store interface {
	// CreateSession assigns an id (when empty) and timestamps.
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateSession applies fn to the stored session and persists the result.
	UpdateSession(ctx context.Context, id string, fn func(*Session)) (Session, error)
	// ListSessions returns the newest sessions first.
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	// AppendMessage assigns an id and timestamp; the session must exist.
	AppendMessage(ctx context.Context, m Message) (Message, error)
	// ListMessages returns a session transcript oldest first.
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
	GetApp(ctx context.Context, id string) (AppMetadata, error)
	PutApp(ctx context.Context, app AppMetadata) error
}

func (s Session) clone() Session {
	s.MockData = slices.Clone(s.MockData)
	s.Schema = slices.Clone(s.Schema)
	if s.App != nil {
		app := s.App.clone()
		s.App = &app
	}
	return s
}

func (m Message) clone() Message {
	m.Data = slices.Clone(m.Data)
	return m
}

func (a AppMetadata) clone() AppMetadata {
	a.OSSystem = slices.Clone(a.OSSystem)
	a.Category = slices.Clone(a.Category)
	a.GeometricDomain = slices.Clone(a.GeometricDomain)
	return a
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m.clone()
	}
	return out
}
