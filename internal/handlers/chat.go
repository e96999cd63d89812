package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/web/src/templates/components"
	"github.com/nfrund/roomchat/web/src/templates/pages"
)

// ChatHandler serves the active room: messages, composer and summaries.
type ChatHandler struct {
	renderer rendering.Renderer
	loc      *time.Location
}

// NewChatHandler creates a new ChatHandler. Timestamps are shown in loc.
func NewChatHandler(renderer rendering.Renderer, loc *time.Location) *ChatHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ChatHandler{renderer: renderer, loc: loc}
}

// Show renders the chat screen (GET /chat).
func (h *ChatHandler) Show(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	st := ctrl.State()
	if st.Screen() != chat.ScreenChat {
		return middleware.Redirect(c, st.Screen().Path())
	}

	data := pages.ChatData{
		User:        *st.User,
		Room:        *st.Room,
		Messages:    st.Messages,
		Draft:       st.Draft,
		Summary:     st.Summary,
		Summarizing: st.Summarizing,
		Location:    h.loc,
	}
	return renderScreen(c, st.Room.Name, st, chat.ScreenChat, pages.Chat(data))
}

// Send posts the composer text (POST /chat/messages). htmx requests get the
// composer back, emptied once the write was acknowledged.
func (h *ChatHandler) Send(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	if err := c.Validate(&req); err != nil {
		ctrl.RejectDraft(c.Request().Context(), req.Text, validationMessage(err))
	} else {
		// Failures are already on the session banner.
		_ = ctrl.Send(c.Request().Context(), req.Text)
	}

	if !middleware.IsHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/chat")
	}
	st := ctrl.State()
	return h.renderer.RenderPage(c, http.StatusOK, g.Group{
		components.Composer(st.Draft),
		components.Banner(st.Notification, components.OOB()),
	})
}

// Summarize requests a summary of the visible messages (POST /chat/summary).
// htmx requests return at once and receive the result over the socket;
// plain form posts wait for it.
func (h *ChatHandler) Summarize(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if !middleware.IsHTMX(c) {
		if err := ctrl.Summarize(ctx); errors.Is(err, chat.ErrClosed) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "The session was closed.")
		}
		return c.Redirect(http.StatusSeeOther, "/chat")
	}

	if err := ctrl.StartSummary(ctx); err != nil && !errors.Is(err, chat.ErrSummaryInProgress) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "The session was closed.")
	}
	st := ctrl.State()
	return h.renderer.RenderPage(c, http.StatusOK, g.Group{
		components.SummaryButton(st.Summarizing, components.OOB()),
		components.SummaryOverlay(st.Summary, components.OOB()),
		components.Banner(st.Notification, components.OOB()),
	})
}

// DismissSummary closes the summary overlay (DELETE /chat/summary).
func (h *ChatHandler) DismissSummary(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctrl.DismissSummary(c.Request().Context())
	return h.renderer.RenderPage(c, http.StatusOK, components.SummaryOverlay(""))
}
