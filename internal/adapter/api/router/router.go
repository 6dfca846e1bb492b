package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
	"anilifetv/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	chatHandler *handler.ChatHandler,
	catalogHandler *handler.CatalogHandler,
	playerHandler *handler.PlayerHandler,
	seoHandler *handler.SEOHandler,
	wsHandler *handler.WebSocketHandler,
) {
	SetupAuthRouter(e, authHandler, authMiddleware)
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupCatalogRouter(e, catalogHandler)
	SetupPlayerRouter(e, playerHandler, authMiddleware)
	SetupSEORouter(e, seoHandler)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
