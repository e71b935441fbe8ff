package router

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/adapter/api/handler"
	"storefront/internal/adapter/api/middleware"
	"storefront/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth and profile routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	public := e.Group("/v1/auth")
	public.Use(middleware.RateLimit(limiter, ratelimit.ActionAuth))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/google", authHandler.LoginWithGoogle)

	e.POST("/v1/auth/logout", authHandler.Logout, authMiddleware.Authenticate)

	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)
	me.GET("", authHandler.Me)
	me.PUT("/profile", authHandler.UpdateProfile)
}
