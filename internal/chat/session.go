package chat

import (
	"github.com/nfrund/roomchat/internal/domain"
)

// Session is the volatile state of one browser session. Controllers hand
// out copies; the original is only touched under the controller lock.
type Session struct {
	ID   string       `json:"id"`
	User *domain.User `json:"user,omitempty"`
	Room *domain.Room `json:"room,omitempty"`

	// Messages is the last snapshot delivered by the room feed.
	Messages []domain.Message `json:"messages"`

	// Draft is the composer buffer; it is cleared only after a write is acknowledged.
	Draft string `json:"draft"`

	// PasscodeInputs holds the last passcode entered per room until a join succeeds.
	PasscodeInputs map[string]string `json:"-"`

	Notification *domain.Notification `json:"notification,omitempty"`
	Summary      string               `json:"summary"`
	Summarizing  bool                 `json:"summarizing"`
}

// SignedIn reports whether a user is present.
func (s Session) SignedIn() bool { return s.User != nil }

// InRoom reports whether a room is active.
func (s Session) InRoom() bool { return s.Room != nil }

// Screen names the screen a session belongs on.
type Screen string

const (
	ScreenAuth  Screen = "auth"
	ScreenRooms Screen = "rooms"
	ScreenChat  Screen = "chat"
)

// Screen returns the screen for the session's current state.
func (s Session) Screen() Screen {
	switch {
	case s.User == nil:
		return ScreenAuth
	case s.Room == nil:
		return ScreenRooms
	default:
		return ScreenChat
	}
}

// Path returns the URL path that renders sc.
func (sc Screen) Path() string {
	switch sc {
	case ScreenRooms:
		return "/rooms"
	case ScreenChat:
		return "/chat"
	default:
		return "/auth/login"
	}
}

func (s *Session) clone() Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Room != nil {
		r := *s.Room
		c.Room = &r
	}
	if s.Notification != nil {
		n := *s.Notification
		c.Notification = &n
	}
	if s.Messages != nil {
		c.Messages = make([]domain.Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	if s.PasscodeInputs != nil {
		c.PasscodeInputs = make(map[string]string, len(s.PasscodeInputs))
		for k, v := range s.PasscodeInputs {
			c.PasscodeInputs[k] = v
		}
	}
	return c
}

// clearRoom drops everything scoped to the active room.
func (s *Session) clearRoom() {
	s.Room = nil
	s.Messages = nil
	s.Summary = ""
}
