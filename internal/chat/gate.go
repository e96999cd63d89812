package chat

import (
	"github.com/nfrund/roomchat/internal/domain"
)

// Gate holds the static room registry and checks passcodes.
//
// The passcode check is a plain string comparison against configuration.
// It keeps casual visitors out of a room; it is not an access control.
type Gate struct {
	rooms []domain.Room
	byID  map[string]domain.Room
}

// NewGate creates a Gate over rooms. The slice order is the display order.
func NewGate(rooms []domain.Room) *Gate {
	g := &Gate{
		rooms: make([]domain.Room, len(rooms)),
		byID:  make(map[string]domain.Room, len(rooms)),
	}
	copy(g.rooms, rooms)
	for _, r := range rooms {
		g.byID[r.ID] = r
	}
	return g
}

// List returns the rooms in display order.
func (g *Gate) List() []domain.Room {
	out := make([]domain.Room, len(g.rooms))
	copy(out, g.rooms)
	return out
}

// Lookup returns the room with the given id.
func (g *Gate) Lookup(id string) (domain.Room, bool) {
	r, ok := g.byID[id]
	return r, ok
}

// Join returns the room iff passcode exactly equals its configured passcode.
func (g *Gate) Join(roomID, passcode string) (domain.Room, error) {
	const op = "chat.JoinRoom"

	room, ok := g.byID[roomID]
	if !ok {
		return domain.Room{}, domain.E(domain.KindValidation, op, domain.ErrUnknownRoom, "That room does not exist.")
	}
	if passcode != room.Passcode {
		return domain.Room{}, domain.E(domain.KindValidation, op, domain.ErrWrongPasscode, "Wrong passcode for "+room.Name+".")
	}
	return room, nil
}
