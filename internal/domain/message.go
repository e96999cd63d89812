package domain

import (
	"context"
	"strings"
	"time"
)

// Message is a single chat line. ID and CreatedAt are assigned by the store;
// messages are immutable once written.
type Message struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	AuthorEmail    string    `json:"author_email"`
	AuthorNickname string    `json:"author_nickname"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage is the outbound payload produced by the composer.
// MaxMessageLength is the longest message text accepted, in characters.
const MaxMessageLength = 4000

type NewMessage struct {
	RoomID         string
	Text           string
	AuthorID       string
	AuthorEmail    string
	AuthorNickname string
}

// MessageRepository appends messages to a room's collection.
type MessageRepository interface {
	// Append writes msg and returns once the store acknowledged the write.
	Append(ctx context.Context, msg NewMessage) (*Message, error)
}

// NormalizeMessage fixes up records coming from the external store so that
// formatting code never sees an absent nickname.
func NormalizeMessage(m Message) Message {
	m.ID = strings.TrimSpace(m.ID)
	m.AuthorNickname = strings.TrimSpace(m.AuthorNickname)
	if m.AuthorNickname == "" {
		m.AuthorNickname = NicknameFromEmail(m.AuthorEmail)
	}
	return m
}

// Snapshot is one delivery from a live room feed: the full ordered message
// list, or an error when the delivery failed.
type Snapshot struct {
	Messages []Message
	Err      error
}

// Subscription is a cancellable handle on a live room feed.
type Subscription interface {
	// Snapshots delivers full ordered snapshots. It is closed after Cancel.
	Snapshots() <-chan Snapshot
	// Cancel detaches the listener. It is safe to call more than once.
	Cancel()
}

// MessageFeed establishes live, creation-time ordered subscriptions scoped to a room.
type MessageFeed interface {
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}
