package repository

import (
	"context"

	"unimarket/internal/domain/entity"
)

type MessageRepository interface {
	// Append persists a message, assigning a monotonically increasing id
	// and a server-side timestamp, and returns the stored record.
	// History is append-only: there is no update or delete.
	Append(ctx context.Context, message *entity.Message) (*entity.Message, error)

	// ListByProduct returns every message for a product ordered by
	// (createdAt, id) ascending. No messages is an empty slice, not an
	// error.
	ListByProduct(ctx context.Context, productID string) ([]*entity.Message, error)
}
