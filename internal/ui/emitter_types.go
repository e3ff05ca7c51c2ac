package ui

type EventType string

const (
	EventTypeMessage EventType = "message"
	EventTypeRender  EventType = "render"
	EventTypeStatus  EventType = "status"
	EventTypeError   EventType = "error"
)

// Event is a preview update pushed to live subscribers of a session.
type Event struct {
	Type      EventType
	SessionID string
	// Node is set for render events.
	Node *Node
	// Payload carries message/status data as plain JSON values.
	Payload map[string]any
	Message string
}

type Emitter interface {
	EmitUIEvent(event Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) EmitUIEvent(event Event) {
	if f != nil {
		f(event)
	}
}
