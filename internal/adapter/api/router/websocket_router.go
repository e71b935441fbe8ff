package router

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/adapter/api/handler"
	"storefront/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the view session endpoints. Sign-in is
// optional; clients may also authenticate later with an auth frame.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()

	e.GET("/ws/products", wsHandler.HandleProductGrid, authMiddleware.Optional)
	e.GET("/ws/products/:id", wsHandler.HandleProductView, authMiddleware.Optional)
}
