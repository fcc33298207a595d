package repository

import (
	"context"

	"unimarket/internal/domain/entity"
)

type ChatRoomRepository interface {
	// Create inserts a new room. The backing store enforces a unique key
	// on (productId, buyerId); a violation is returned as a CONFLICT
	// error so the caller can read back the existing row.
	Create(ctx context.Context, room *entity.ChatRoom) error

	GetByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	GetByProductAndBuyer(ctx context.Context, productID, buyerID string) (*entity.ChatRoom, error)

	// ListByUser returns rooms where the user is buyer or seller,
	// most-recently-active first.
	ListByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error)

	// List filters rooms by participant and/or product. Empty arguments
	// are ignored.
	List(ctx context.Context, userID, productID string) ([]*entity.ChatRoom, error)
}
