package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB opens (and creates, if needed) the local SQLite database.
// Used when no DATABASE_URL is configured; in this mode the binary also
// hosts the products and users tables, so they are created here too.
func NewSQLiteDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = "./data/unimarket.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		seller_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (product_id, buyer_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL REFERENCES chat_rooms(id),
		product_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_messages_product_order ON messages (product_id, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room_id);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_buyer ON chat_rooms (buyer_id);
	CREATE INDEX IF NOT EXISTS idx_chat_rooms_seller ON chat_rooms (seller_id);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
