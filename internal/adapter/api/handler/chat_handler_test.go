package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimarket/internal/adapter/api"
	"unimarket/internal/adapter/api/handler"
	"unimarket/internal/adapter/api/router"
	"unimarket/internal/adapter/repository"
	"unimarket/internal/domain/entity"
	ws "unimarket/internal/infrastructure/websocket"
	"unimarket/internal/usecase"
	apperrors "unimarket/pkg/errors"
)

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*entity.ChatRoom
}

func (r *fakeRoomRepo) key(productID, buyerID string) string {
	return productID + "|" + buyerID
}

func (r *fakeRoomRepo) Create(_ context.Context, room *entity.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms == nil {
		r.rooms = make(map[string]*entity.ChatRoom)
	}
	key := r.key(room.ProductID, room.BuyerID)
	if _, ok := r.rooms[key]; ok {
		return apperrors.Conflict("chat room already exists for this product and buyer")
	}
	room.CreatedAt = time.Now().UTC()
	room.LastActivity = room.CreatedAt
	clone := *room
	r.rooms[key] = &clone
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id string) (*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.ID == id {
			clone := *room
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("Chat room", nil)
}

func (r *fakeRoomRepo) GetByProductAndBuyer(_ context.Context, productID, buyerID string) (*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[r.key(productID, buyerID)]
	if !ok {
		return nil, apperrors.NotFound("Chat room", nil)
	}
	clone := *room
	return &clone, nil
}

func (r *fakeRoomRepo) ListByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	return r.List(ctx, userID, "")
}

func (r *fakeRoomRepo) List(_ context.Context, userID, productID string) ([]*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := make([]*entity.ChatRoom, 0)
	for _, room := range r.rooms {
		if userID != "" && room.BuyerID != userID && room.SellerID != userID {
			continue
		}
		if productID != "" && room.ProductID != productID {
			continue
		}
		clone := *room
		rooms = append(rooms, &clone)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	return rooms, nil
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	seq  int64
	msgs []*entity.Message
}

func (r *fakeMessageRepo) Append(_ context.Context, message *entity.Message) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *message
	stored.ID = r.seq
	stored.CreatedAt = time.Now().UTC()
	clone := stored
	r.msgs = append(r.msgs, &clone)
	return &stored, nil
}

func (r *fakeMessageRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages := make([]*entity.Message, 0)
	for _, msg := range r.msgs {
		if msg.ProductID == productID {
			clone := *msg
			messages = append(messages, &clone)
		}
	}
	return messages, nil
}

type fakeProductDirectory map[string]string

func (d fakeProductDirectory) ResolveSeller(_ context.Context, productID string) (string, error) {
	seller, ok := d[productID]
	if !ok {
		return "", apperrors.NotFound("Product", nil)
	}
	return seller, nil
}

type fakeUserDirectory map[string]*entity.User

func (d fakeUserDirectory) GetByID(_ context.Context, id string) (*entity.User, error) {
	user, ok := d[id]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	return user, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Timestamp string `json:"timestamp"`
}

type testServer struct {
	e        *echo.Echo
	messages *fakeMessageRepo
	uc       *usecase.ChatUseCase
}

func newTestServer(sellers map[string]string, users map[string]*entity.User) *testServer {
	if users == nil {
		users = map[string]*entity.User{}
	}

	manager := ws.NewManager(nil, 2000)
	messages := &fakeMessageRepo{}
	uc := usecase.NewChatUseCase(
		&fakeRoomRepo{},
		messages,
		fakeProductDirectory(sellers),
		fakeUserDirectory(users),
		manager,
		repository.NewLocalRoomLocker(),
	)
	manager.SetMessageService(uc)

	e := echo.New()
	e.Validator = api.NewValidator()
	router.SetupChatRouter(e, handler.NewChatHandler(uc))

	return &testServer{e: e, messages: messages, uc: uc}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreateChatRoom(t *testing.T) {
	s := newTestServer(map[string]string{"p42": "s1"}, nil)

	rec, env := s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p42","userId":"b1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var created entity.ChatRoom
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "p42", created.ProductID)
	assert.Equal(t, "b1", created.BuyerID)
	assert.Equal(t, "s1", created.SellerID)
	assert.NotEmpty(t, created.ID)

	// The same pair resolves to the existing room with a 200.
	rec, env = s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p42","userId":"b1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var existing entity.ChatRoom
	require.NoError(t, json.Unmarshal(env.Data, &existing))
	assert.Equal(t, created.ID, existing.ID)
}

func TestCreateChatRoomUnknownProduct(t *testing.T) {
	s := newTestServer(map[string]string{}, nil)

	rec, env := s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"ghost","userId":"b1"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateChatRoomMissingFields(t *testing.T) {
	s := newTestServer(map[string]string{"p1": "s1"}, nil)

	rec, env := s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestCreateChatRoomSelfChat(t *testing.T) {
	s := newTestServer(map[string]string{"p1": "u1"}, nil)

	rec, env := s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p1","userId":"u1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestGetChatRooms(t *testing.T) {
	s := newTestServer(map[string]string{"p1": "s1", "p2": "s2"}, nil)

	_, _ = s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p1","userId":"b1"}`)
	_, _ = s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p2","userId":"b1"}`)

	rec, env := s.do(t, http.MethodGet, "/chats/chatRooms?userId=b1&productId=p1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []*entity.ChatRoom
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "p1", rooms[0].ProductID)
}

func TestGetChatRoomsRequiresFilter(t *testing.T) {
	s := newTestServer(map[string]string{}, nil)

	rec, env := s.do(t, http.MethodGet, "/chats/chatRooms", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestGetMyChatRooms(t *testing.T) {
	users := map[string]*entity.User{"s1": {ID: "s1", Username: "sara"}}
	s := newTestServer(map[string]string{"p1": "s1"}, users)

	_, _ = s.do(t, http.MethodPost, "/chats/chatRooms", `{"productId":"p1","userId":"b1"}`)

	rec, env := s.do(t, http.MethodGet, "/chats/myChatRooms?userId=b1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []struct {
		entity.ChatRoom
		OtherUser *entity.User `json:"otherUser"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)
	require.NotNil(t, rooms[0].OtherUser)
	assert.Equal(t, "sara", rooms[0].OtherUser.Username)
}

func TestGetMessagesEmptyHistory(t *testing.T) {
	s := newTestServer(map[string]string{"p1": "s1"}, nil)

	rec, env := s.do(t, http.MethodGet, "/chats/messages/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []*entity.Message
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	assert.Empty(t, messages)
}

func TestGetMessagesAfterSend(t *testing.T) {
	s := newTestServer(map[string]string{"p1": "s1"}, nil)

	_, err := s.uc.SendLiveMessage(context.Background(), ws.SendMessageInput{
		ProductID: "p1",
		Text:      "still available?",
		Sender:    "b1",
		Receiver:  "s1",
	})
	require.NoError(t, err)

	rec, env := s.do(t, http.MethodGet, "/chats/messages/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []*entity.Message
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, int64(1), messages[0].ID)
	assert.Equal(t, "still available?", messages[0].Text)
}
