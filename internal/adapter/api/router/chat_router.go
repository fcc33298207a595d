package router

import (
	"github.com/labstack/echo/v4"

	"unimarket/internal/adapter/api/handler"
)

// SetupChatRouter registers the request/response chat endpoints.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler) {
	chats := e.Group("/chats")

	chats.GET("/chatRooms", chatHandler.GetChatRooms)
	chats.POST("/chatRooms", chatHandler.CreateChatRoom)
	chats.GET("/myChatRooms", chatHandler.GetMyChatRooms)
	chats.GET("/messages/:productId", chatHandler.GetMessages)
}
