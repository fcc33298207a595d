package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"unimarket/internal/domain/entity"
	"unimarket/internal/infrastructure/metrics"
	"unimarket/pkg/logger"

	apperrors "unimarket/pkg/errors"
)

// Frame types exchanged on the live channel.
const (
	FrameTypePing        = "ping"
	FrameTypePong        = "pong"
	FrameTypeJoinRoom    = "joinRoom"
	FrameTypeLeaveRoom   = "leaveRoom"
	FrameTypeSendMessage = "sendMessage"
	FrameTypeNewMessage  = "newMessage"
	FrameTypeError       = "error"
)

type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type SendMessageData struct {
	ProductID string `json:"productId"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
}

type RoomRef struct {
	RoomID string `json:"roomId"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessageFrame encodes a persisted message as the outbound
// newMessage frame broadcast to room subscribers.
func NewMessageFrame(msg *entity.Message) []byte {
	payload, err := json.Marshal(outboundFrame{Type: FrameTypeNewMessage, Data: msg})
	if err != nil {
		logger.Error("failed to encode newMessage frame for message %d: %v", msg.ID, err)
		return nil
	}
	return payload
}

// HandleClientMessage processes one inbound frame from a client.
func (m *Manager) HandleClientMessage(c *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		metrics.FramesRejected.WithLabelValues("invalid_json").Inc()
		m.sendError(c, "BAD_REQUEST", "invalid frame")
		return
	}

	switch frame.Type {
	case FrameTypePing:
		m.sendFrame(c, outboundFrame{Type: FrameTypePong})

	case FrameTypeJoinRoom:
		m.handleJoinRoom(c, frame.Data)

	case FrameTypeLeaveRoom:
		m.handleLeaveRoom(c, frame.Data)

	case FrameTypeSendMessage:
		m.handleSendMessage(c, frame.Data)

	default:
		metrics.FramesRejected.WithLabelValues("unknown_type").Inc()
		m.sendError(c, "BAD_REQUEST", "unknown frame type")
	}
}

func (m *Manager) handleJoinRoom(c *Client, data json.RawMessage) {
	var ref RoomRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.RoomID == "" {
		m.sendError(c, "VALIDATION_ERROR", "joinRoom requires roomId")
		return
	}

	m.JoinRoom(ref.RoomID, c)
	logger.Debug("client %s joined room %s", c.ID, ref.RoomID)
}

func (m *Manager) handleLeaveRoom(c *Client, data json.RawMessage) {
	var ref RoomRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.RoomID == "" {
		m.sendError(c, "VALIDATION_ERROR", "leaveRoom requires roomId")
		return
	}

	m.LeaveRoom(ref.RoomID, c)
	logger.Debug("client %s left room %s", c.ID, ref.RoomID)
}

func (m *Manager) handleSendMessage(c *Client, data json.RawMessage) {
	var msg SendMessageData
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.FramesRejected.WithLabelValues("invalid_json").Inc()
		m.sendError(c, "VALIDATION_ERROR", "invalid sendMessage payload")
		return
	}

	if msg.ProductID == "" || msg.Text == "" || msg.Sender == "" || msg.Receiver == "" {
		metrics.FramesRejected.WithLabelValues("validation").Inc()
		m.sendError(c, "VALIDATION_ERROR", "productId, text, sender and receiver are required")
		return
	}
	if len(msg.Text) > m.maxTextLen {
		metrics.FramesRejected.WithLabelValues("validation").Inc()
		m.sendError(c, "VALIDATION_ERROR", "message text too long")
		return
	}

	// Persistence runs on a background context: a disconnect mid-flight
	// must not roll the message back.
	_, err := m.svc.SendLiveMessage(context.Background(), SendMessageInput{
		ProductID: msg.ProductID,
		Text:      msg.Text,
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
	})
	if err != nil {
		metrics.FramesRejected.WithLabelValues("storage").Inc()
		logger.Error("live message from client %s dropped: %v", c.ID, err)

		// Delivery failure is reported to the originator only; nothing
		// is broadcast.
		code := "STORAGE_ERROR"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code != "INTERNAL_ERROR" {
			code = appErr.Code
		}
		m.sendError(c, code, "message could not be delivered")
		return
	}
}

func (m *Manager) sendFrame(c *Client, frame outboundFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("failed to encode %s frame for client %s: %v", frame.Type, c.ID, err)
		return
	}
	m.sendToClient(c, payload)
}

func (m *Manager) sendError(c *Client, code, message string) {
	m.sendFrame(c, outboundFrame{
		Type: FrameTypeError,
		Data: ErrorData{Code: code, Message: message},
	})
}
