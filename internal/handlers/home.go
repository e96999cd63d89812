package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/web/src/templates/components"
)

// HomeHandler serves the entry point and session-wide controls.
type HomeHandler struct {
	renderer rendering.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(renderer rendering.Renderer) *HomeHandler {
	return &HomeHandler{renderer: renderer}
}

// HomeGet sends the session to the screen for its state (GET /).
func (h *HomeHandler) HomeGet(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, ctrl.State().Screen().Path())
}

// DismissNotification hides a banner (DELETE /notifications/:id).
func (h *HomeHandler) DismissNotification(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctrl.DismissNotification(c.Request().Context(), c.Param("id"))
	return h.renderer.RenderPage(c, http.StatusOK, components.Banner(ctrl.State().Notification))
}
