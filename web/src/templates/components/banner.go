package components

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/view"
)

// Element ids shared by pages and pushed fragments.
const (
	BannerID         = "banner"
	MessageListID    = "message-list"
	ComposerID       = "composer"
	SummaryButtonID  = "summarize-button"
	SummaryOverlayID = "summary-overlay"
	RedirectSlotID   = "ws-redirect"
)

// Banner renders the transient notification, or an empty placeholder so
// later swaps have a target. attrs are added to the root element.
func Banner(n *domain.Notification, attrs ...g.Node) g.Node {
	if n == nil {
		return h.Div(h.ID(BannerID), g.Group(attrs))
	}
	return h.Div(h.ID(BannerID), g.Group(attrs),
		h.Div(h.Class("banner banner-"+string(n.Level)), g.Attr("role", "status"),
			h.Span(g.Text(n.Text)),
			h.Button(h.Type("button"), g.Attr("aria-label", "Dismiss"),
				hx.Delete("/notifications/"+n.ID), hx.Target("#"+BannerID), hx.Swap("outerHTML"),
				g.Text("×"),
			),
		),
	)
}

// Flashes renders messages carried across a redirect.
func Flashes(f view.FlashData) g.Node {
	if f.Empty() {
		return nil
	}
	return h.Div(h.Class("card"),
		g.Map(f.Error, func(msg string) g.Node {
			return h.P(h.Class("flash-error"), g.Text(msg))
		}),
		g.Map(f.Success, func(msg string) g.Node {
			return h.P(h.Class("flash-success"), g.Text(msg))
		}),
	)
}

// RedirectSlot is the target of pushed navigation fragments.
func RedirectSlot() g.Node {
	return h.Div(h.ID(RedirectSlotID))
}
