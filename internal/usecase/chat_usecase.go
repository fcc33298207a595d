package usecase

import (
	"context"

	"github.com/google/uuid"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	"unimarket/internal/infrastructure/metrics"
	ws "unimarket/internal/infrastructure/websocket"
	"unimarket/pkg/errors"
	"unimarket/pkg/logger"
)

type ChatUseCase struct {
	roomRepo    repository.ChatRoomRepository
	messageRepo repository.MessageRepository
	products    repository.ProductDirectory
	users       repository.UserDirectory
	wsManager   *ws.Manager

	// locker serializes append+broadcast per room so subscribers
	// observe messages in persistence order, across instances when the
	// store is shared.
	locker repository.RoomLocker
}

func NewChatUseCase(
	roomRepo repository.ChatRoomRepository,
	messageRepo repository.MessageRepository,
	products repository.ProductDirectory,
	users repository.UserDirectory,
	wsManager *ws.Manager,
	locker repository.RoomLocker,
) *ChatUseCase {
	return &ChatUseCase{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		products:    products,
		users:       users,
		wsManager:   wsManager,
		locker:      locker,
	}
}

// RoomResponse decorates a room with the counterpart's display profile
// for listing endpoints.
type RoomResponse struct {
	*entity.ChatRoom
	OtherUser *entity.User `json:"otherUser,omitempty"`
}

type GetOrCreateRoomResult struct {
	Room    *entity.ChatRoom
	Created bool
}

// GetOrCreateRoom returns the room for a (product, buyer) pair,
// creating it on first contact. The seller is resolved from the product
// at creation time. Concurrent calls for the same pair converge on one
// room: the storage layer enforces a unique key and a losing insert
// reads the winner back.
func (uc *ChatUseCase) GetOrCreateRoom(ctx context.Context, productID, buyerID string) (*GetOrCreateRoomResult, error) {
	if productID == "" || buyerID == "" {
		return nil, errors.BadRequest("productId and userId are required", nil)
	}

	sellerID, err := uc.products.ResolveSeller(ctx, productID)
	if err != nil {
		return nil, err
	}

	return uc.getOrCreate(ctx, productID, buyerID, sellerID)
}

func (uc *ChatUseCase) getOrCreate(ctx context.Context, productID, buyerID, sellerID string) (*GetOrCreateRoomResult, error) {
	if buyerID == sellerID {
		return nil, errors.BadRequest("you cannot open a chat with yourself", nil)
	}

	room := &entity.ChatRoom{
		ID:        uuid.New().String(),
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
	}

	err := uc.roomRepo.Create(ctx, room)
	if err == nil {
		metrics.RoomsCreated.Inc()
		logger.Info("chat room %s created for product %s (buyer %s, seller %s)", room.ID, productID, buyerID, sellerID)
		return &GetOrCreateRoomResult{Room: room, Created: true}, nil
	}

	if !errors.Is(err, "CONFLICT") {
		return nil, err
	}

	existing, err := uc.roomRepo.GetByProductAndBuyer(ctx, productID, buyerID)
	if err != nil {
		return nil, err
	}
	return &GetOrCreateRoomResult{Room: existing, Created: false}, nil
}

// ListMyRooms returns the user's rooms, most-recently-active first,
// each decorated with the other participant's profile. Profile lookups
// are best effort: a failed resolve degrades to the bare room.
func (uc *ChatUseCase) ListMyRooms(ctx context.Context, userID string) ([]*RoomResponse, error) {
	if userID == "" {
		return nil, errors.BadRequest("userId is required", nil)
	}

	rooms, err := uc.roomRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp := &RoomResponse{ChatRoom: room}

		counterpart := room.SellerID
		if userID == room.SellerID {
			counterpart = room.BuyerID
		}
		if user, err := uc.users.GetByID(ctx, counterpart); err == nil {
			resp.OtherUser = user
		} else {
			logger.Debug("could not resolve counterpart %s for room %s: %v", counterpart, room.ID, err)
		}

		responses = append(responses, resp)
	}
	return responses, nil
}

// ListRooms is the filterable room lookup behind GET /chats/chatRooms.
func (uc *ChatUseCase) ListRooms(ctx context.Context, userID, productID string) ([]*entity.ChatRoom, error) {
	if userID == "" && productID == "" {
		return nil, errors.BadRequest("userId or productId is required", nil)
	}
	return uc.roomRepo.List(ctx, userID, productID)
}

// History returns the full message log for a product, ordered by
// (createdAt, id) ascending.
func (uc *ChatUseCase) History(ctx context.Context, productID string) ([]*entity.Message, error) {
	if productID == "" {
		return nil, errors.BadRequest("productId is required", nil)
	}
	return uc.messageRepo.ListByProduct(ctx, productID)
}

// SendLiveMessage implements websocket.MessageService: it resolves the
// room for an inbound frame, persists the message and broadcasts the
// stored record to the room's subscribers. Nothing is broadcast unless
// the append succeeded.
func (uc *ChatUseCase) SendLiveMessage(ctx context.Context, input ws.SendMessageInput) (*entity.Message, error) {
	if input.ProductID == "" || input.Text == "" || input.Sender == "" || input.Receiver == "" {
		return nil, errors.BadRequest("productId, text, sender and receiver are required", nil)
	}

	sellerID, err := uc.products.ResolveSeller(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	// The buyer is whichever participant is not the product's seller.
	buyerID := input.Sender
	if buyerID == sellerID {
		buyerID = input.Receiver
	}

	result, err := uc.getOrCreate(ctx, input.ProductID, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	room := result.Room

	unlock, err := uc.locker.Lock(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stored, err := uc.messageRepo.Append(ctx, &entity.Message{
		RoomID:    room.ID,
		ProductID: input.ProductID,
		Text:      input.Text,
		Sender:    input.Sender,
		Receiver:  input.Receiver,
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesPersisted.Inc()

	if payload := ws.NewMessageFrame(stored); payload != nil {
		uc.wsManager.BroadcastToRoom(ctx, room.ID, payload)
	}
	return stored, nil
}
