package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool opens the connection pool and makes sure the chat
// schema exists. The products and users tables are owned by the
// marketplace CRUD application and are only read here.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := initPostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func initPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY,
		product_id TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		seller_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (product_id, buyer_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES chat_rooms(id),
		product_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_product_order ON messages (product_id, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room_id);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_buyer ON chat_rooms (buyer_id);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_seller ON chat_rooms (seller_id);
	`

	_, err := pool.Exec(ctx, schema)
	return err
}
