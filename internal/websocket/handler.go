// Package websocket pushes session updates to the browser. Every frame is
// a set of HTML fragments that htmx swaps in by element id.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/pubsub"
	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/web/src/templates/components"
)

const writeWait = 10 * time.Second

// Handler serves GET /ws for the session resolved by middleware.Session.
type Handler struct {
	subscriber pubsub.Subscriber
	renderer   rendering.Renderer
	loc        *time.Location
}

// NewHandler creates a Handler that renders timestamps in loc.
func NewHandler(sub pubsub.Subscriber, renderer rendering.Renderer, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{subscriber: sub, renderer: renderer, loc: loc}
}

// Serve upgrades the request and streams fragments for the screen named by
// the "screen" query parameter until the client goes away. When the session
// no longer qualifies for that screen the client is told to navigate.
func (h *Handler) Serve(c echo.Context) error {
	ctrl, ok := middleware.ControllerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "session middleware is not installed")
	}
	page := chat.Screen(c.QueryParam("screen"))
	logger := middleware.FromContext(c.Request().Context()).With("screen", string(page))

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("Failed to upgrade connection to WebSocket", "event", "ws_upgrade_failed", "error", err)
		return nil
	}
	defer conn.CloseNow()

	// The client never sends; CloseRead answers control frames and cancels
	// the context once the peer is gone.
	ctx, cancel := context.WithCancel(conn.CloseRead(c.Request().Context()))
	defer cancel()

	latest := newLatestEvent()
	err = chat.SessionEvents.Subscribe(ctx, h.subscriber, ctrl.ID(), func(_ context.Context, ev chat.Event) error {
		latest.offer(ev)
		return nil
	})
	if err != nil {
		logger.Error("Failed to subscribe to session events", "event", "ws_subscribe_failed", "error", err)
		conn.Close(websocket.StatusInternalError, "subscription failed")
		return nil
	}
	latest.offer(ctrl.Current())
	logger.Info("WebSocket connected", "event", "ws_connected")

	for {
		select {
		case <-ctx.Done():
			logger.Info("WebSocket closed", "event", "ws_closed")
			return nil
		case <-latest.ready:
		}

		ev, ok := latest.take()
		if !ok {
			continue
		}
		frame, err := h.frame(ctx, ev.Session, page)
		if err != nil {
			logger.Error("Failed to render session fragments", "event", "ws_render_failed", "seq", ev.Seq, "error", err)
			continue
		}

		writeCtx, writeCancel := context.WithTimeout(ctx, writeWait)
		err = conn.Write(writeCtx, websocket.MessageText, frame)
		writeCancel()
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logger.Warn("WebSocket write error", "event", "ws_write_failed", "error", err)
			}
			return nil
		}
	}
}

func (h *Handler) frame(ctx context.Context, s chat.Session, page chat.Screen) ([]byte, error) {
	if current := s.Screen(); rank(current) < rank(page) {
		return h.renderer.RenderComponent(ctx, components.Navigate(current.Path()))
	}
	return h.renderer.RenderComponent(ctx, components.SessionFragments(s, page, h.loc))
}

// rank orders screens by what they require; unknown screens require nothing.
func rank(s chat.Screen) int {
	switch s {
	case chat.ScreenRooms:
		return 1
	case chat.ScreenChat:
		return 2
	default:
		return 0
	}
}

// latestEvent keeps the newest undelivered event. Events at or below the
// last delivered sequence number are dropped, so out-of-order deliveries
// from the bus never roll the page back.
type latestEvent struct {
	ready chan struct{}

	mu        sync.Mutex
	pending   *chat.Event
	delivered bool
	lastSeq   uint64
}

func newLatestEvent() *latestEvent {
	return &latestEvent{ready: make(chan struct{}, 1)}
}

func (l *latestEvent) offer(ev chat.Event) {
	l.mu.Lock()
	if l.delivered && ev.Seq <= l.lastSeq {
		l.mu.Unlock()
		return
	}
	if l.pending != nil && ev.Seq <= l.pending.Seq {
		l.mu.Unlock()
		return
	}
	l.pending = &ev
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latestEvent) take() (chat.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return chat.Event{}, false
	}
	ev := *l.pending
	l.pending = nil
	l.delivered = true
	l.lastSeq = ev.Seq
	return ev, true
}
