package preview

import (
	"context"
	"errors"
	"strings"
	"sync"

	"widgetgen/internal/ui"
)

const defaultSubscriberBuffer = 32

var ErrSessionRequired = errors.New("session_id is required")

// Hub fans preview events out to the subscribers of each session. Slow
// subscribers lose their oldest pending event rather than block emitters.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan ui.Event]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{subs: map[string]map[chan ui.Event]struct{}{}, buffer: buffer}
}

// Subscribe registers a subscriber for sessionID. The channel is closed
// once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan ui.Event, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	ch := make(chan ui.Event, h.buffer)
	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = map[chan ui.Event]struct{}{}
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(set, ch)
		if len(set) == 0 {
			delete(h.subs, sessionID)
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers reports how many subscribers sessionID has.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// EmitUIEvent implements ui.Emitter.
func (h *Hub) EmitUIEvent(event ui.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.SessionID] {
		push(ch, event)
	}
}

func push(ch chan ui.Event, event ui.Event) {
	select {
	case ch <- event:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- event:
	default:
	}
}

// Wire converts event to the JSON object sent to websocket clients.
func Wire(event ui.Event) map[string]any {
	out := map[string]any{
		"type":      string(event.Type),
		"sessionId": event.SessionID,
	}
	if event.Node != nil {
		out["node"] = ui.ToMap(*event.Node)
	}
	if len(event.Payload) > 0 {
		out["payload"] = event.Payload
	}
	if event.Message != "" {
		out["message"] = event.Message
	}
	return out
}
