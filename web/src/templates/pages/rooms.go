package pages

import (
	"net/url"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
)

// RoomsData is the view model of the room selection screen.
type RoomsData struct {
	User  domain.User
	Rooms []domain.Room
	// Passcodes holds what was last typed per room id.
	Passcodes map[string]string
}

// Rooms renders the room list with one passcode form per room.
func Rooms(data RoomsData) g.Node {
	return g.Group{
		header(data.User, nil),
		h.Div(h.Class("card"),
			h.H1(g.Text("Choose a room")),
			g.If(len(data.Rooms) == 0, h.P(g.Text("No rooms are configured."))),
			g.Map(data.Rooms, func(r domain.Room) g.Node {
				return roomForm(r, data.Passcodes[r.ID])
			}),
		),
	}
}

func roomForm(r domain.Room, passcode string) g.Node {
	inputID := "passcode-" + r.ID
	return g.El("form", h.Class("room"), h.Method("post"), h.Action("/rooms/"+url.PathEscape(r.ID)+"/join"),
		h.H2(g.Text(r.Name)),
		g.El("label", g.Attr("for", inputID), g.Text("Passcode ")),
		h.Input(h.Type("password"), h.Name("passcode"), h.ID(inputID), h.Value(passcode), h.AutoComplete("off")),
		h.Button(h.Type("submit"), g.Text("Join")),
	)
}

// header shows who is signed in, the active room and the exit controls.
func header(u domain.User, room *domain.Room) g.Node {
	return h.Header(h.Class("card"),
		h.Span(g.Text("Signed in as "), h.Strong(g.Text(u.Nickname)), g.Text(" ("+u.Email+")")),
		g.If(room != nil, g.Group{
			g.Text(" · "),
			g.El("form", h.Method("post"), h.Action("/rooms/leave"), g.Attr("style", "display:inline"),
				h.Button(h.Type("submit"), g.Text("Leave room")),
			),
		}),
		g.El("form", h.Method("post"), h.Action("/auth/logout"), g.Attr("style", "display:inline"),
			h.Button(h.Type("submit"), g.Text("Sign out")),
		),
	)
}
