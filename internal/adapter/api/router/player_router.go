package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
	"anilifetv/internal/adapter/api/middleware"
)

func SetupPlayerRouter(e *echo.Echo, playerHandler *handler.PlayerHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/player/sessions")
	group.Use(authMiddleware.Authenticate)

	group.POST("", playerHandler.CreateSession)
	group.GET("/:id", playerHandler.GetSession)
	group.DELETE("/:id", playerHandler.CloseSession)
	group.POST("/:id/commands", playerHandler.Command)
	group.POST("/:id/hover", playerHandler.HoverTime)
}
