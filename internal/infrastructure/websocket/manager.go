package websocket

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"unimarket/internal/domain/entity"
	"unimarket/internal/infrastructure/metrics"
	"unimarket/pkg/logger"
)

const roomChannelPrefix = "room:"

// MessageService persists an inbound message and triggers the room
// broadcast on success. Implemented by usecase.ChatUseCase; declared
// here so the manager does not depend on the usecase package.
type MessageService interface {
	SendLiveMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error)
}

type SendMessageInput struct {
	ProductID string
	Text      string
	Sender    string
	Receiver  string
}

// Manager maintains the connection registry and the per-room subscriber
// index. Delivery is always scoped to a single room; there is no global
// broadcast path.
type Manager struct {
	mu          sync.RWMutex
	clients     map[string]*Client            // connection id -> client
	roomClients map[string]map[string]*Client // room id -> connection id -> client
	clientRooms map[string]map[string]bool    // connection id -> subscribed room ids

	svc        MessageService
	rdb        *redis.Client
	maxTextLen int
}

// NewManager creates a manager. rdb may be nil, in which case fan-out
// stays local to this process.
func NewManager(rdb *redis.Client, maxTextLen int) *Manager {
	return &Manager{
		clients:     make(map[string]*Client),
		roomClients: make(map[string]map[string]*Client),
		clientRooms: make(map[string]map[string]bool),
		rdb:         rdb,
		maxTextLen:  maxTextLen,
	}
}

// SetMessageService wires the persistence path after construction; the
// usecase needs the manager for broadcasting, so the two are linked in
// main.
func (m *Manager) SetMessageService(svc MessageService) {
	m.svc = svc
}

// Start runs the cross-instance subscription loop when Redis is
// configured. Every instance delivers a published message to its own
// local subscribers of the room channel.
func (m *Manager) Start(ctx context.Context) {
	if m.rdb == nil {
		return
	}

	pubsub := m.rdb.PSubscribe(ctx, roomChannelPrefix+"*")
	go func() {
		defer pubsub.Close()
		for msg := range pubsub.Channel() {
			roomID := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
			m.deliverToRoom(roomID, []byte(msg.Payload))
		}
	}()
}

func (m *Manager) RegisterClient(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	metrics.ActiveConnections.Inc()
	logger.Info("client registered: %s (user %s)", c.ID, c.UserID)
}

// UnregisterClient removes the client from the registry and from every
// room set. Idempotent: a second call for the same client is a no-op.
func (m *Manager) UnregisterClient(c *Client) {
	m.mu.Lock()
	if _, ok := m.clients[c.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, c.ID)
	for roomID := range m.clientRooms[c.ID] {
		delete(m.roomClients[roomID], c.ID)
		if len(m.roomClients[roomID]) == 0 {
			delete(m.roomClients, roomID)
		}
	}
	delete(m.clientRooms, c.ID)
	close(c.Send)
	m.mu.Unlock()

	metrics.ActiveConnections.Dec()
	logger.Info("client unregistered: %s", c.ID)
}

// JoinRoom subscribes a registered client to a room. Joining a room the
// client is already in is a no-op.
func (m *Manager) JoinRoom(roomID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c.ID]; !ok {
		return
	}
	if m.roomClients[roomID] == nil {
		m.roomClients[roomID] = make(map[string]*Client)
	}
	m.roomClients[roomID][c.ID] = c
	if m.clientRooms[c.ID] == nil {
		m.clientRooms[c.ID] = make(map[string]bool)
	}
	m.clientRooms[c.ID][roomID] = true
}

func (m *Manager) LeaveRoom(roomID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.roomClients[roomID], c.ID)
	if len(m.roomClients[roomID]) == 0 {
		delete(m.roomClients, roomID)
	}
	delete(m.clientRooms[c.ID], roomID)
}

// BroadcastToRoom fans a payload out to the room's subscribers. With
// Redis configured the payload goes through the room channel so every
// instance (this one included) delivers it; otherwise delivery is
// local and direct.
func (m *Manager) BroadcastToRoom(ctx context.Context, roomID string, payload []byte) {
	if m.rdb != nil {
		err := m.rdb.Publish(ctx, roomChannelPrefix+roomID, payload).Err()
		if err == nil {
			return
		}
		logger.Error("publish to room %s failed, delivering locally: %v", roomID, err)
	}
	m.deliverToRoom(roomID, payload)
}

func (m *Manager) deliverToRoom(roomID string, payload []byte) {
	// Send channels are only closed under the write lock in
	// UnregisterClient, so enqueueing under the read lock cannot race a
	// close. A full queue marks the client for eviction instead of
	// blocking the room.
	var slow []*Client

	m.mu.RLock()
	for _, c := range m.roomClients[roomID] {
		select {
		case c.Send <- payload:
			metrics.BroadcastsDelivered.Inc()
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("client %s cannot keep up with room %s, dropping", c.ID, roomID)
		m.UnregisterClient(c)
	}
}

// sendToClient enqueues a payload for one connection only, used for
// error reporting back to a message's originator.
func (m *Manager) sendToClient(c *Client, payload []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.clients[c.ID]; !ok {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warn("client %s send queue full, error frame dropped", c.ID)
	}
}

// RoomSubscriberCount reports the current size of a room's subscriber
// set.
func (m *Manager) RoomSubscriberCount(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.roomClients[roomID])
}
