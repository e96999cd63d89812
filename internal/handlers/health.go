package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	IsHealthy() bool
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	db       HealthChecker
	sessions SessionCounter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db HealthChecker, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

// Check reports process health. It answers 503 while the database is unreachable.
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Database: "up"}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Len()
	}
	if h.db != nil && !h.db.IsHealthy() {
		resp.Status = "degraded"
		resp.Database = "down"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
