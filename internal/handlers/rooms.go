package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/web/src/templates/pages"
)

// RoomsHandler serves the room selection screen.
type RoomsHandler struct {
	gate *chat.Gate
}

// NewRoomsHandler creates a new RoomsHandler.
func NewRoomsHandler(gate *chat.Gate) *RoomsHandler {
	return &RoomsHandler{gate: gate}
}

// List renders the rooms with their passcode forms (GET /rooms).
func (h *RoomsHandler) List(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	st := ctrl.State()
	if st.User == nil {
		return middleware.Redirect(c, "/auth/login")
	}
	data := pages.RoomsData{
		User:      *st.User,
		Rooms:     h.gate.List(),
		Passcodes: st.PasscodeInputs,
	}
	return renderScreen(c, "Rooms", st, chat.ScreenRooms, pages.Rooms(data))
}

// Join enters a room (POST /rooms/:id/join). A rejected passcode returns
// to the room list, where the banner explains why.
func (h *RoomsHandler) Join(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}

	var req JoinRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid room.")
	}

	if err := ctrl.JoinRoom(c.Request().Context(), req.RoomID, req.Passcode); err != nil {
		return middleware.Redirect(c, "/rooms")
	}
	return middleware.Redirect(c, "/chat")
}

// Leave leaves the active room (POST /rooms/leave).
func (h *RoomsHandler) Leave(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctrl.LeaveRoom(c.Request().Context())
	return middleware.Redirect(c, "/rooms")
}
