package repository

import (
	"context"

	"unimarket/internal/domain/entity"
)

// ProductDirectory and UserDirectory are the collaborator contracts the
// chat core consumes from the marketplace CRUD application. They are
// read-only here.

type ProductDirectory interface {
	// ResolveSeller returns the current seller of a product, or a
	// NOT_FOUND error when the product does not exist.
	ResolveSeller(ctx context.Context, productID string) (string, error)
}

type UserDirectory interface {
	// GetByID resolves a user id to its displayable profile. Used for
	// presentation only; persistence never depends on it.
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
