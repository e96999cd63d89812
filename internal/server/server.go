package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/config"
	"github.com/nfrund/roomchat/internal/handlers"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/pubsub"
	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/web"
)

const sessionMaxAge = 86400 * 7

// Deps are the collaborators the HTTP server routes requests to.
type Deps struct {
	Config     config.Provider
	Manager    *chat.Manager
	Gate       *chat.Gate
	Renderer   *rendering.UniversalRenderer
	Subscriber pubsub.Subscriber
	Health     handlers.HealthChecker
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E    *echo.Echo
	deps Deps

	// baseCtx parents every request context so hijacked websocket
	// connections end when the server shuts down.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New creates a Server with middleware and routes registered.
func New(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = deps.Renderer
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(requestLogger())

	store := sessions.NewCookieStore([]byte(deps.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	e.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	baseCtx, cancel := context.WithCancel(context.Background())
	e.Server.BaseContext = func(net.Listener) context.Context { return baseCtx }

	s := &Server{E: e, deps: deps, baseCtx: baseCtx, cancelBase: cancel}
	s.RegisterRoutes()
	return s
}

func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || strings.HasPrefix(c.Path(), "/static")
		},
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger := middleware.FromContext(c.Request().Context())
			attrs := []any{
				"event", "http_request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Microsecond).String(),
			}
			if v.Error != nil {
				logger.Warn("Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("Request handled", attrs...)
			return nil
		},
	})
}

// Shutdown stops accepting requests, ends live websocket streams and tears
// down every session controller.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelBase()
	s.deps.Manager.Close()
	if err := s.E.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "HTTP server shutdown failed", "event", "server_shutdown_error", "error", err)
		return err
	}
	return nil
}
