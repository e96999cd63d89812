package server

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/roomchat/internal/handlers"
	"github.com/nfrund/roomchat/internal/middleware"
)

// setupErrorHandling installs the application's HTTP error handler. Errors
// that are not echo.HTTPErrors are unexpected; they are logged with a stack
// trace and reported to the client as a bare 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = http.StatusText(code)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		} else {
			middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"event", "unhandled_error",
				"error", err.Error(),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		var writeErr error
		switch {
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(code)
		case strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON):
			writeErr = c.JSON(code, handlers.ErrorResponse{
				Code:    strings.ReplaceAll(strings.ToLower(http.StatusText(code)), " ", "_"),
				Message: message,
			})
		default:
			writeErr = c.String(code, message)
		}
		if writeErr != nil {
			c.Logger().Error(fmt.Errorf("write error response: %w", writeErr))
		}
	}
}
