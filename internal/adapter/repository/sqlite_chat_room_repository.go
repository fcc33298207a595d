package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"unimarket/internal/domain/entity"
	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
)

const sqliteRoomSelect = `
	SELECT r.id, r.product_id, r.buyer_id, r.seller_id, r.created_at,
	       COALESCE((SELECT MAX(m.created_at) FROM messages m WHERE m.room_id = r.id), r.created_at) AS last_activity
	FROM chat_rooms r`

type sqliteChatRoomRepository struct {
	db *sql.DB
}

func NewSQLiteChatRoomRepository(db *sql.DB) repository.ChatRoomRepository {
	return &sqliteChatRoomRepository{db: db}
}

func (r *sqliteChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, product_id, buyer_id, seller_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, room.ID, room.ProductID, room.BuyerID, room.SellerID, createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return apperrors.Conflict("chat room already exists for this product and buyer")
		}
		return apperrors.Internal("failed to create chat room", err)
	}

	room.CreatedAt = createdAt
	room.LastActivity = createdAt
	return nil
}

func (r *sqliteChatRoomRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, sqliteRoomSelect+` WHERE r.id = ?`, id))
}

func (r *sqliteChatRoomRepository) GetByProductAndBuyer(ctx context.Context, productID, buyerID string) (*entity.ChatRoom, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, sqliteRoomSelect+` WHERE r.product_id = ? AND r.buyer_id = ?`, productID, buyerID))
}

func (r *sqliteChatRoomRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	rows, err := r.db.QueryContext(ctx, sqliteRoomSelect+`
		WHERE r.buyer_id = ? OR r.seller_id = ?
		ORDER BY last_activity DESC`, userID, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list chat rooms", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *sqliteChatRoomRepository) List(ctx context.Context, userID, productID string) ([]*entity.ChatRoom, error) {
	query := sqliteRoomSelect + ` WHERE 1=1`
	args := []interface{}{}

	if userID != "" {
		query += " AND (r.buyer_id = ? OR r.seller_id = ?)"
		args = append(args, userID, userID)
	}
	if productID != "" {
		query += " AND r.product_id = ?"
		args = append(args, productID)
	}
	query += " ORDER BY last_activity DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal("failed to list chat rooms", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *sqliteChatRoomRepository) scanOne(row *sql.Row) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	var lastActivity string
	err := row.Scan(&room.ID, &room.ProductID, &room.BuyerID, &room.SellerID, &room.CreatedAt, &lastActivity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("Chat room", err)
		}
		return nil, apperrors.Internal("failed to get chat room", err)
	}

	room.LastActivity, err = parseSQLiteTime(lastActivity)
	if err != nil {
		return nil, apperrors.Internal("failed to parse room activity timestamp", err)
	}
	return &room, nil
}

func (r *sqliteChatRoomRepository) scanAll(rows *sql.Rows) ([]*entity.ChatRoom, error) {
	rooms := make([]*entity.ChatRoom, 0)
	for rows.Next() {
		var room entity.ChatRoom
		var lastActivity string
		if err := rows.Scan(&room.ID, &room.ProductID, &room.BuyerID, &room.SellerID, &room.CreatedAt, &lastActivity); err != nil {
			return nil, apperrors.Internal("failed to scan chat room", err)
		}

		parsed, err := parseSQLiteTime(lastActivity)
		if err != nil {
			return nil, apperrors.Internal("failed to parse room activity timestamp", err)
		}
		room.LastActivity = parsed

		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate chat rooms", err)
	}
	return rooms, nil
}

// parseSQLiteTime decodes a timestamp read from an expression column.
// Such columns have no declared type, so the driver hands the stored
// text back as a string instead of a time.Time; decode it with the
// same formats the driver uses for typed columns.
func parseSQLiteTime(s string) (time.Time, error) {
	for _, format := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
