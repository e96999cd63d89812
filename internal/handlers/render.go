package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/view"
	"github.com/nfrund/roomchat/web/src/templates/layouts"
)

// controller returns the session controller resolved by middleware.Session.
func controller(c echo.Context) (*chat.Controller, error) {
	ctrl, ok := middleware.ControllerFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session middleware is not installed")
	}
	return ctrl, nil
}

// renderScreen renders body inside the base layout with the session's
// banner and any pending flashes. A non-empty screen opens the push socket.
func renderScreen(c echo.Context, title string, st chat.Session, screen chat.Screen, body g.Node) error {
	props := layouts.BaseProps{
		Title:   title,
		Flashes: view.GetFlashData(c),
		Banner:  st.Notification,
	}
	if screen != chat.ScreenAuth {
		props.Screen = string(screen)
	}
	return c.Render(http.StatusOK, "", view.Page(layouts.Base(props, body)))
}
