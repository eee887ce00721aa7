// Package storage persists rooms and player standings.
package storage

import (
	"context"
	"errors"

	"github.com/palemoky/cluegrid/internal/game/room"
)

// ErrRoomNotFound is returned by Load for an id that was never saved or has expired.
var ErrRoomNotFound = errors.New("room not found")

// Store loads and saves whole rooms. Implementations must be safe for concurrent use;
// serialising writers to one room is the caller's job.
type Store interface {
	Load(ctx context.Context, roomID string) (*room.Room, error)
	Save(ctx context.Context, roomID string, r *room.Room) error
}

var (
	_ Lister = (*MemoryStore)(nil)
	_ Lister = (*RedisStore)(nil)
)

// Lister is implemented by stores that can enumerate their live rooms.
type Lister interface {
	RoomIDs(ctx context.Context) ([]string, error)
}
