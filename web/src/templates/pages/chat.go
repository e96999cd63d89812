package pages

import (
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/web/src/templates/components"
)

// ChatData is the view model of the chat screen.
type ChatData struct {
	User        domain.User
	Room        domain.Room
	Messages    []domain.Message
	Draft       string
	Summary     string
	Summarizing bool
	Location    *time.Location
}

// Chat renders the active room.
func Chat(data ChatData) g.Node {
	return g.Group{
		header(data.User, &data.Room),
		h.Div(h.Class("card"),
			h.H1(g.Text(data.Room.Name)),
			components.SummaryButton(data.Summarizing),
			components.MessageList(data.Messages, data.Location),
		),
		components.Composer(data.Draft),
		components.SummaryOverlay(data.Summary),
	}
}
