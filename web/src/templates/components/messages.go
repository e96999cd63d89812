package components

import (
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/summary"
)

// MessageList renders the room's messages oldest first.
func MessageList(msgs []domain.Message, loc *time.Location, attrs ...g.Node) g.Node {
	if len(msgs) == 0 {
		return h.Ul(h.ID(MessageListID), h.Class("messages"), g.Group(attrs),
			h.Li(h.Class("message message-meta"), g.Text("No messages yet. Say hello!")),
		)
	}
	return h.Ul(h.ID(MessageListID), h.Class("messages"), g.Group(attrs),
		g.Map(msgs, func(m domain.Message) g.Node {
			return messageItem(m, loc)
		}),
	)
}

func messageItem(m domain.Message, loc *time.Location) g.Node {
	return h.Li(h.Class("message"), h.ID("msg-"+domIDPart(m.ID)),
		h.Div(h.Class("message-meta"),
			h.Strong(g.Text(m.AuthorNickname)),
			g.Text(" · "),
			g.El("time", g.Text(summary.FormatTimestamp(m.CreatedAt, loc))),
		),
		h.Div(h.Class("message-text"), g.Text(m.Text)),
	)
}

// domIDPart turns a record id such as "message:abc" into an id-safe token.
func domIDPart(id string) string {
	b := []byte(id)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			b[i] = '-'
		}
	}
	return string(b)
}
