package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

type postgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) repository.MessageRepository {
	return &postgresMessageRepository{pool: pool}
}

func (r *postgresMessageRepository) Append(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	stored := *message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, product_id, sender, receiver, text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, message.RoomID, message.ProductID, message.Sender, message.Receiver, message.Text).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, apperrors.Internal("failed to append message", err)
	}
	return &stored, nil
}

func (r *postgresMessageRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, product_id, text, sender, receiver, created_at
		FROM messages
		WHERE product_id = $1
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
