package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/roomchat/internal/chat"
)

const (
	// SessionCookieName is the signed cookie holding the session id and the
	// id of the signed-in user.
	SessionCookieName = "roomchat-session"

	sessionIDKey  = "sid"
	userIDKey     = "uid"
	controllerKey = "controller"
)

// Session resolves the browser session to its chat controller, creating
// both on first contact. A controller created for a cookie that still names
// a user (after a process restart) signs that user back in. It needs the
// echo-contrib session middleware in front of it.
func Session(manager *chat.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := FromContext(c.Request().Context())

			sess, err := session.Get(SessionCookieName, c)
			if err != nil {
				if sess == nil {
					return fmt.Errorf("failed to load session: %w", err)
				}
				// Cookies signed with a rotated secret fail to decode; gorilla
				// hands back a fresh session in that case.
				logger.Warn("Discarding unreadable session cookie", "event", "session_cookie_invalid", "error", err)
			}

			sid, _ := sess.Values[sessionIDKey].(string)
			if sid == "" {
				sid = uuid.NewString()
				sess.Values[sessionIDKey] = sid
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return fmt.Errorf("failed to save session: %w", err)
				}
			}

			ctrl, created, err := manager.GetOrCreate(sid)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "The server is shutting down.")
			}

			// session.Get swapped the request context to hold the session
			// registry, so the logger is layered on the current one.
			logger = logger.With("session_id", sid)
			ctx := WithLogger(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))

			if created {
				if uid, ok := sess.Values[userIDKey].(string); ok && uid != "" {
					if err := ctrl.Restore(ctx, uid); err != nil {
						logger.Warn("Could not restore signed-in user", "event", "session_restore_failed", "user_id", uid, "error", err)
						delete(sess.Values, userIDKey)
						if err := sess.Save(c.Request(), c.Response()); err != nil {
							return fmt.Errorf("failed to save session: %w", err)
						}
					} else {
						logger.Info("Restored signed-in user", "event", "session_restored", "user_id", uid)
					}
				}
			}

			c.Set(controllerKey, ctrl)
			return next(c)
		}
	}
}

// ControllerFrom returns the controller resolved by Session.
func ControllerFrom(c echo.Context) (*chat.Controller, bool) {
	ctrl, ok := c.Get(controllerKey).(*chat.Controller)
	return ctrl, ok && ctrl != nil
}

// RememberUser stores userID in the session cookie.
func RememberUser(c echo.Context, userID string) error {
	return updateUser(c, userID)
}

// ForgetUser removes the user from the session cookie. The session id is kept.
func ForgetUser(c echo.Context) error {
	return updateUser(c, "")
}

func updateUser(c echo.Context, userID string) error {
	sess, err := session.Get(SessionCookieName, c)
	if sess == nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if userID == "" {
		delete(sess.Values, userIDKey)
	} else {
		sess.Values[userIDKey] = userID
	}
	return sess.Save(c.Request(), c.Response())
}

// RequireUser sends sessions without a signed-in user to the sign-in page.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctrl, ok := ControllerFrom(c)
		if !ok || !ctrl.State().SignedIn() {
			return Redirect(c, "/auth/login")
		}
		return next(c)
	}
}

// RequireRoom sends sessions without an active room to the room list.
// Apply after RequireUser.
func RequireRoom(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctrl, ok := ControllerFrom(c)
		if !ok || !ctrl.State().InRoom() {
			return Redirect(c, "/rooms")
		}
		return next(c)
	}
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// Redirect sends the client to path: through the HX-Redirect header for
// htmx requests, with a 303 otherwise.
func Redirect(c echo.Context, path string) error {
	if IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", path)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, path)
}
