package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation; Create maps it to CONFLICT so the directory can read back
// the winning row.
const uniqueViolation = "23505"

const roomSelect = `
	SELECT r.id, r.product_id, r.buyer_id, r.seller_id, r.created_at,
	       COALESCE((SELECT MAX(m.created_at) FROM messages m WHERE m.room_id = r.id), r.created_at) AS last_activity
	FROM chat_rooms r`

type postgresChatRoomRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresChatRoomRepository(pool *pgxpool.Pool) repository.ChatRoomRepository {
	return &postgresChatRoomRepository{pool: pool}
}

func (r *postgresChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_rooms (id, product_id, buyer_id, seller_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, room.ID, room.ProductID, room.BuyerID, room.SellerID).Scan(&room.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("chat room already exists for this product and buyer")
		}
		return apperrors.Internal("failed to create chat room", err)
	}

	room.LastActivity = room.CreatedAt
	return nil
}

func (r *postgresChatRoomRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	return r.scanOne(r.pool.QueryRow(ctx, roomSelect+` WHERE r.id = $1`, id))
}

func (r *postgresChatRoomRepository) GetByProductAndBuyer(ctx context.Context, productID, buyerID string) (*entity.ChatRoom, error) {
	return r.scanOne(r.pool.QueryRow(ctx, roomSelect+` WHERE r.product_id = $1 AND r.buyer_id = $2`, productID, buyerID))
}

func (r *postgresChatRoomRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	rows, err := r.pool.Query(ctx, roomSelect+`
		WHERE r.buyer_id = $1 OR r.seller_id = $1
		ORDER BY last_activity DESC`, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list chat rooms", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *postgresChatRoomRepository) List(ctx context.Context, userID, productID string) ([]*entity.ChatRoom, error) {
	query := roomSelect + ` WHERE 1=1`
	args := []interface{}{}

	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND (r.buyer_id = $%d OR r.seller_id = $%d)", len(args), len(args))
	}
	if productID != "" {
		args = append(args, productID)
		query += fmt.Sprintf(" AND r.product_id = $%d", len(args))
	}
	query += " ORDER BY last_activity DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal("failed to list chat rooms", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *postgresChatRoomRepository) scanOne(row pgx.Row) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := row.Scan(&room.ID, &room.ProductID, &room.BuyerID, &room.SellerID, &room.CreatedAt, &room.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Chat room", err)
		}
		return nil, apperrors.Internal("failed to get chat room", err)
	}
	return &room, nil
}

func (r *postgresChatRoomRepository) scanAll(rows pgx.Rows) ([]*entity.ChatRoom, error) {
	rooms := make([]*entity.ChatRoom, 0)
	for rows.Next() {
		var room entity.ChatRoom
		if err := rows.Scan(&room.ID, &room.ProductID, &room.BuyerID, &room.SellerID, &room.CreatedAt, &room.LastActivity); err != nil {
			return nil, apperrors.Internal("failed to scan chat room", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate chat rooms", err)
	}
	return rooms, nil
}
