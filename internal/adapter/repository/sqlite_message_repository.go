package repository

import (
	"context"
	"database/sql"
	"time"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

type sqliteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) repository.MessageRepository {
	return &sqliteMessageRepository{db: db}
}

func (r *sqliteMessageRepository) Append(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	stored := *message
	stored.CreatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (room_id, product_id, sender, receiver, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, message.RoomID, message.ProductID, message.Sender, message.Receiver, message.Text, stored.CreatedAt)
	if err != nil {
		return nil, apperrors.Internal("failed to append message", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Internal("failed to read message id", err)
	}
	stored.ID = id

	return &stored, nil
}

func (r *sqliteMessageRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, product_id, text, sender, receiver, created_at
		FROM messages
		WHERE product_id = ?
		ORDER BY created_at, id
	`, productID)
	if err != nil {
		return nil, apperrors.Internal("failed to list messages", err)
	}
	defer rows.Close()

	messages := make([]*entity.Message, 0)
	for rows.Next() {
		var message entity.Message
		if err := rows.Scan(&message.ID, &message.RoomID, &message.ProductID, &message.Text, &message.Sender, &message.Receiver, &message.CreatedAt); err != nil {
			return nil, apperrors.Internal("failed to scan message", err)
		}
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate messages", err)
	}
	return messages, nil
}
