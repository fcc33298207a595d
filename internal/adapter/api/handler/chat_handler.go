package handler

import (
	"github.com/labstack/echo/v4"

	"unimarket/internal/usecase"
	"unimarket/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRoomRequest struct {
	ProductID string `json:"productId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

// CreateChatRoom opens (or returns) the room for a product and a
// prospective buyer. 201 when the room was created, 200 when it already
// existed, so the endpoint is idempotent for the caller.
func (h *ChatHandler) CreateChatRoom(c echo.Context) error {
	var req createChatRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chatUseCase.GetOrCreateRoom(c.Request().Context(), req.ProductID, req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	if result.Created {
		return response.Created(c, result.Room)
	}
	return response.Success(c, result.Room)
}

// GetChatRooms looks rooms up by participant and/or product.
func (h *ChatHandler) GetChatRooms(c echo.Context) error {
	userID := c.QueryParam("userId")
	productID := c.QueryParam("productId")

	rooms, err := h.chatUseCase.ListRooms(c.Request().Context(), userID, productID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

// GetMyChatRooms lists the rooms a user participates in, most recently
// active first.
func (h *ChatHandler) GetMyChatRooms(c echo.Context) error {
	userID := c.QueryParam("userId")

	rooms, err := h.chatUseCase.ListMyRooms(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

// GetMessages returns the full negotiation history for a product.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	productID := c.Param("productId")

	messages, err := h.chatUseCase.History(c.Request().Context(), productID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}
