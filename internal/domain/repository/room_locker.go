package repository

import "context"

// RoomLocker serializes the append+broadcast critical section of a
// room so subscribers observe messages in persistence order. Lock
// blocks until the room is available and returns the unlock function.
// Implementations backed by a shared store must hold the lock across
// every instance using that store.
type RoomLocker interface {
	Lock(ctx context.Context, roomID string) (func(), error)
}
