package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

// The directories read tables owned by the marketplace CRUD app.

type postgresProductDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresProductDirectory(pool *pgxpool.Pool) repository.ProductDirectory {
	return &postgresProductDirectory{pool: pool}
}

func (d *postgresProductDirectory) ResolveSeller(ctx context.Context, productID string) (string, error) {
	var sellerID string
	err := d.pool.QueryRow(ctx, `SELECT seller_id FROM products WHERE id = $1`, productID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("Product", err)
		}
		return "", apperrors.Internal("failed to resolve product seller", err)
	}
	return sellerID, nil
}

type postgresUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresUserDirectory(pool *pgxpool.Pool) repository.UserDirectory {
	return &postgresUserDirectory{pool: pool}
}

func (d *postgresUserDirectory) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := d.pool.QueryRow(ctx, `SELECT id, username, email FROM users WHERE id = $1`, id).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal("failed to resolve user", err)
	}
	return &user, nil
}
