package chat

import (
	"github.com/nfrund/roomchat/internal/pubsub"
)

// EventType names the part of the session that changed.
type EventType string

const (
	EventMessages     EventType = "messages"
	EventNotification EventType = "notification"
	EventSummary      EventType = "summary"
	EventState        EventType = "state"
)

// Event is published on the session topic after every state change. It
// carries the full session so consumers can render any fragment from it.
// Seq increases per session; consumers drop events older than the last one
// they rendered.
type Event struct {
	Type    EventType `json:"type"`
	Seq     uint64    `json:"seq"`
	Session Session   `json:"session"`
}

// SessionEvents is the topic family for per-session events ("session.<sid>").
var SessionEvents = pubsub.NewTopic[Event]("session")
