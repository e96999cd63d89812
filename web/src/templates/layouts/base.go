package layouts

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/view"
	"github.com/nfrund/roomchat/web/src/templates/components"
)

const (
	htmxSrc   = "https://unpkg.com/htmx.org@2.0.4"
	htmxWsSrc = "https://unpkg.com/htmx-ext-ws@2.0.2"
)

// BaseProps configures the page shell.
type BaseProps struct {
	Title   string
	Flashes view.FlashData
	Banner  *domain.Notification
	// Screen, when set, opens the push socket for that screen.
	Screen string
}

// Base wraps body in the HTML document shell.
func Base(p BaseProps, body ...g.Node) g.Node {
	content := h.Main(h.Class("container"),
		components.Flashes(p.Flashes),
		components.Banner(p.Banner),
		components.RedirectSlot(),
		g.Group(body),
	)

	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				g.El("title", g.Text(CalculateTitle(p.Title))),
				h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
				h.Script(h.Src(htmxSrc)),
				h.Script(h.Src(htmxWsSrc)),
			),
			h.Body(
				g.If(p.Screen != "",
					h.Div(hx.Ext("ws"), g.Attr("ws-connect", "/ws?screen="+p.Screen), content),
				),
				g.If(p.Screen == "", content),
			),
		),
	)
}
