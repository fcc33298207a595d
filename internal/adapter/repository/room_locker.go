package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"unimarket/internal/domain/repository"
	apperrors "unimarket/pkg/errors"
	"unimarket/pkg/logger"
)

// localRoomLocker serializes rooms within this process. Sufficient for
// the SQLite store, which only ever serves a single instance.
type localRoomLocker struct {
	locks sync.Map
}

func NewLocalRoomLocker() repository.RoomLocker {
	return &localRoomLocker{}
}

func (l *localRoomLocker) Lock(_ context.Context, roomID string) (func(), error) {
	lock, _ := l.locks.LoadOrStore(roomID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock, nil
}

// postgresRoomLocker holds a session advisory lock keyed on the room
// id, so the append+broadcast section is serialized across every
// instance sharing the database.
type postgresRoomLocker struct {
	pool *pgxpool.Pool
}

func NewPostgresRoomLocker(pool *pgxpool.Pool) repository.RoomLocker {
	return &postgresRoomLocker{pool: pool}
}

func (l *postgresRoomLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	// The lock is tied to the session, so it needs a dedicated
	// connection held until unlock.
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to acquire room lock connection", err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1)::bigint)`, roomID); err != nil {
		conn.Release()
		return nil, apperrors.Internal("failed to lock room", err)
	}

	unlock := func() {
		// Unlock must run even when the request context is gone. If it
		// fails, close the session so the lock dies with it instead of
		// returning a locked connection to the pool.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1)::bigint)`, roomID); err != nil {
			logger.Error("failed to unlock room %s: %v", roomID, err)
			conn.Conn().Close(context.Background())
		}
		conn.Release()
	}
	return unlock, nil
}
