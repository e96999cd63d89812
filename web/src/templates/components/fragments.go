package components

import (
	"strconv"
	"time"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/roomchat/internal/chat"
)

// OOB is the attribute that turns a fragment into an out-of-band swap.
func OOB() g.Node {
	return hx.SwapOOB("true")
}

// SessionFragments renders the parts of screen that follow session state,
// each as an out-of-band swap. The composer is left alone so typing is not
// interrupted.
func SessionFragments(s chat.Session, screen chat.Screen, loc *time.Location) g.Node {
	nodes := g.Group{Banner(s.Notification, OOB())}
	if screen == chat.ScreenChat {
		nodes = append(nodes,
			MessageList(s.Messages, loc, OOB()),
			SummaryButton(s.Summarizing, OOB()),
			SummaryOverlay(s.Summary, OOB()),
		)
	}
	return nodes
}

// Navigate renders a fragment that sends the browser to path.
func Navigate(path string) g.Node {
	return h.Div(h.ID(RedirectSlotID), OOB(),
		h.Script(g.Raw("window.location.assign("+strconv.Quote(path)+")")),
	)
}
