package server

import (
	"github.com/nfrund/roomchat/internal/handlers"
	"github.com/nfrund/roomchat/internal/middleware"
	"github.com/nfrund/roomchat/internal/websocket"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	loc := s.deps.Config.GetDisplayLocation()

	homeHandler := handlers.NewHomeHandler(s.deps.Renderer)
	authHandler := handlers.NewAuthHandler()
	roomsHandler := handlers.NewRoomsHandler(s.deps.Gate)
	chatHandler := handlers.NewChatHandler(s.deps.Renderer, loc)
	healthHandler := handlers.NewHealthHandler(s.deps.Health, s.deps.Manager)
	wsHandler := websocket.NewHandler(s.deps.Subscriber, s.deps.Renderer, loc)

	sess := middleware.Session(s.deps.Manager)
	rateLimiter := middleware.RateLimiter()

	s.E.GET("/health", healthHandler.Check)

	s.E.GET("/", homeHandler.HomeGet, sess)
	s.E.DELETE("/notifications/:id", homeHandler.DismissNotification, sess)

	auth := s.E.Group("/auth", sess)
	auth.GET("/login", authHandler.LoginGet)
	auth.POST("/login", authHandler.LoginPost, rateLimiter)
	auth.GET("/register", authHandler.RegisterGet)
	auth.POST("/register", authHandler.RegisterPost, rateLimiter)
	auth.POST("/logout", authHandler.Logout)

	rooms := s.E.Group("/rooms", sess, middleware.RequireUser)
	rooms.GET("", roomsHandler.List)
	rooms.POST("/:id/join", roomsHandler.Join)
	rooms.POST("/leave", roomsHandler.Leave)

	inRoom := s.E.Group("/chat", sess, middleware.RequireUser, middleware.RequireRoom)
	inRoom.GET("", chatHandler.Show)
	inRoom.POST("/messages", chatHandler.Send)
	inRoom.POST("/summary", chatHandler.Summarize)
	inRoom.DELETE("/summary", chatHandler.DismissSummary)

	s.E.GET("/ws", wsHandler.Serve, sess)
}
