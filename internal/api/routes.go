package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/internal/websocket"
)

// InitRoutes initializes all API routes. hub may be nil to serve HTTP only.
func InitRoutes(e *echo.Echo, h *Handler, hub *websocket.Hub, logger *zap.Logger) {
	e.GET("/health", h.health)

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/expenses", h.listExpenses)
	v1.POST("/expenses", h.createExpense)
	v1.POST("/expenses/text", h.submitText)
	v1.GET("/expenses/stats", h.expenseStats)
	v1.DELETE("/expenses/:id", h.deleteExpense)

	v1.POST("/speech/transcribe", h.transcribe)

	if hub != nil {
		e.GET("/ws", func(c echo.Context) error {
			return websocket.HandleWebSocket(hub, c, logger)
		})
	}
}
