package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
	"anilifetv/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1")
	group.Use(authMiddleware.Authenticate)

	group.GET("/me", authHandler.Me)
	group.PATCH("/me", authHandler.UpdateMe)
	group.POST("/auth/signout", authHandler.SignOut)
}
