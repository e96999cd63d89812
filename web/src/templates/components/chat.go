package components

import (
	"strconv"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/domain"
)

// Composer renders the message form holding draft.
func Composer(draft string) g.Node {
	return g.El("form", h.ID(ComposerID), h.Class("card"),
		h.Method("post"), h.Action("/chat/messages"),
		hx.Post("/chat/messages"), hx.Target("this"), hx.Swap("outerHTML"),
		h.Textarea(h.Name("text"), h.Placeholder("Write a message"),
			g.Attr("maxlength", strconv.Itoa(domain.MaxMessageLength)), g.Attr("aria-label", "Message"),
			g.Text(draft),
		),
		h.Button(h.Type("submit"), g.Text("Send")),
	)
}

// SummaryButton renders the summarize control. It is disabled while a
// request is outstanding.
func SummaryButton(summarizing bool, attrs ...g.Node) g.Node {
	label := "Summarize conversation"
	if summarizing {
		label = "Summarizing…"
	}
	return g.El("form", h.ID(SummaryButtonID), g.Group(attrs),
		h.Method("post"), h.Action("/chat/summary"),
		hx.Post("/chat/summary"), hx.Swap("none"),
		h.Button(h.Type("submit"), g.If(summarizing, h.Disabled()), g.Text(label)),
	)
}

// SummaryOverlay renders the summary panel, or an empty placeholder.
func SummaryOverlay(text string, attrs ...g.Node) g.Node {
	if text == "" {
		return h.Div(h.ID(SummaryOverlayID), g.Group(attrs))
	}
	return h.Div(h.ID(SummaryOverlayID), g.Group(attrs),
		h.Section(h.Class("overlay"), g.Attr("role", "dialog"), g.Attr("aria-label", "Conversation summary"),
			h.H2(g.Text("Conversation summary")),
			h.Div(h.Class("summary-text"), g.Text(text)),
			h.Button(h.Type("button"),
				hx.Delete("/chat/summary"), hx.Target("#"+SummaryOverlayID), hx.Swap("outerHTML"),
				g.Text("Close"),
			),
		),
	)
}
