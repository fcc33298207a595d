package repository

import (
	"context"
	"database/sql"
	"errors"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

type sqliteProductDirectory struct {
	db *sql.DB
}

func NewSQLiteProductDirectory(db *sql.DB) repository.ProductDirectory {
	return &sqliteProductDirectory{db: db}
}

func (d *sqliteProductDirectory) ResolveSeller(ctx context.Context, productID string) (string, error) {
	var sellerID string
	err := d.db.QueryRowContext(ctx, `SELECT seller_id FROM products WHERE id = ?`, productID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("Product", err)
		}
		return "", apperrors.Internal("failed to resolve product seller", err)
	}
	return sellerID, nil
}

type sqliteUserDirectory struct {
	db *sql.DB
}

func NewSQLiteUserDirectory(db *sql.DB) repository.UserDirectory {
	return &sqliteUserDirectory{db: db}
}

func (d *sqliteUserDirectory) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := d.db.QueryRowContext(ctx, `SELECT id, username, email FROM users WHERE id = ?`, id).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal("failed to resolve user", err)
	}
	return &user, nil
}
