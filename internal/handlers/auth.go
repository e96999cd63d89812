package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/domain"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/view"
	"github.com/nfrund/roomchat/web/src/templates/pages"
)

// AuthHandler serves sign-in, registration and sign-out.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// LoginGet renders the sign-in form (GET /auth/login). Signed-in sessions
// are sent on to their current screen.
func (h *AuthHandler) LoginGet(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	st := ctrl.State()
	if st.SignedIn() {
		return c.Redirect(http.StatusSeeOther, st.Screen().Path())
	}

	data := pages.LoginData{Email: view.TakeFormValue(c, "email")}
	return renderScreen(c, "Sign in", st, chat.ScreenAuth, pages.Login(data))
}

// LoginPost handles the sign-in form (POST /auth/login).
func (h *AuthHandler) LoginPost(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	if err := c.Validate(&req); err != nil {
		view.SetFlashError(c, validationMessage(err))
		view.SetFormValue(c, "email", req.Email)
		return c.Redirect(http.StatusSeeOther, "/auth/login")
	}

	if err := ctrl.SignIn(ctx, req.Email, req.Password); err != nil {
		logger.Warn("Failed login attempt", "event", "signin_failed", "email", req.Email, "kind", domain.KindOf(err).String())
		view.SetFormValue(c, "email", req.Email)
		return c.Redirect(http.StatusSeeOther, "/auth/login")
	}

	if err := rememberCurrentUser(c, ctrl); err != nil {
		logger.Error("Failed to save session", "event", "session_save_failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, "/rooms")
}

// RegisterGet renders the registration form (GET /auth/register).
func (h *AuthHandler) RegisterGet(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	st := ctrl.State()
	if st.SignedIn() {
		return c.Redirect(http.StatusSeeOther, st.Screen().Path())
	}

	data := pages.RegisterData{
		Email:    view.TakeFormValue(c, "email"),
		Nickname: view.TakeFormValue(c, "nickname"),
	}
	return renderScreen(c, "Register", st, chat.ScreenAuth, pages.Register(data))
}

// RegisterPost handles the registration form (POST /auth/register).
func (h *AuthHandler) RegisterPost(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}

	keepForm := func() {
		view.SetFormValue(c, "email", req.Email)
		view.SetFormValue(c, "nickname", req.Nickname)
	}
	if err := c.Validate(&req); err != nil {
		view.SetFlashError(c, validationMessage(err))
		keepForm()
		return c.Redirect(http.StatusSeeOther, "/auth/register")
	}

	err = ctrl.Register(ctx, req.Email, req.Password, req.Nickname, req.SecretKey)
	if u := ctrl.State().User; u == nil || !strings.EqualFold(u.Email, strings.TrimSpace(req.Email)) {
		logger.Warn("Registration failed", "event", "register_failed", "email", req.Email, "kind", domain.KindOf(err).String())
		keepForm()
		return c.Redirect(http.StatusSeeOther, "/auth/register")
	}
	if err != nil {
		// The account exists; only the profile write failed.
		logger.Warn("Registered without a stored nickname", "event", "register_partial", "error", err)
	}

	if err := rememberCurrentUser(c, ctrl); err != nil {
		logger.Error("Failed to save session", "event", "session_save_failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, "/rooms")
}

// Logout signs the session out (POST /auth/logout).
func (h *AuthHandler) Logout(c echo.Context) error {
	ctrl, err := controller(c)
	if err != nil {
		return err
	}
	ctrl.SignOut(c.Request().Context())
	if err := middleware.ForgetUser(c); err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to save session", "event", "session_save_failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}

func rememberCurrentUser(c echo.Context, ctrl *chat.Controller) error {
	u := ctrl.State().User
	if u == nil {
		return nil
	}
	return middleware.RememberUser(c, u.ID)
}
