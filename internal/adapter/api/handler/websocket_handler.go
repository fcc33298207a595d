package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "unimarket/internal/infrastructure/websocket"
	"unimarket/pkg/errors"
	"unimarket/pkg/logger"
	"unimarket/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	pongWait  time.Duration
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, pongWait time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		pongWait:  pongWait,
	}
}

// HandleWebSocket upgrades the request and attaches the connection to
// the hub. The user id is optional; it only annotates the connection.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := c.QueryParam("userId")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upgrade connection", err))
	}

	client := ws.NewClient(uuid.New().String(), userID, conn, h.pongWait)
	h.wsManager.RegisterClient(client)
	logger.Debug("websocket connection %s opened", client.ID)

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}
