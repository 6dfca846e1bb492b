package router

import (
	"github.com/labstack/echo/v4"

	"anilifetv/internal/adapter/api/handler"
	"anilifetv/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.OpenChat)
	chatGroup.GET("", chatHandler.ListChats)
	chatGroup.GET("/:id", chatHandler.GetChat)
	chatGroup.DELETE("/:id", chatHandler.DeleteChat)

	chatGroup.GET("/:id/messages", chatHandler.ListMessages)
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.PATCH("/:id/messages/:messageId", chatHandler.EditMessage)
	chatGroup.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)
	chatGroup.POST("/:id/media", chatHandler.SendMedia)

	userGroup := e.Group("/v1/users")
	userGroup.Use(authMiddleware.Authenticate)
	userGroup.GET("/search", chatHandler.SearchUsers)
}
