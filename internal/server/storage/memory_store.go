package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/palemoky/cluegrid/internal/game/room"
)

// MemoryStore keeps rooms in process. Rooms are copied on the way in and out,
// so callers never share state with the store.
type MemoryStore struct {
	rooms map[string]*room.Room
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*room.Room)}
}

// Load returns a copy of the stored room.
func (s *MemoryStore) Load(ctx context.Context, roomID string) (*room.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.Clone(), nil
}

// Save stores a copy of r.
func (s *MemoryStore) Save(ctx context.Context, roomID string, r *room.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = r.Clone()
	return nil
}

// Delete removes a room.
func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// RoomIDs lists the stored rooms in id order.
func (s *MemoryStore) RoomIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Len returns the number of stored rooms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
