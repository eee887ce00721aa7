package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/cluegrid/internal/game/room"
)

const (
	roomKeyPrefix = "room:"

	// DefaultRoomTTL is the retention of an idle room.
	DefaultRoomTTL = 2 * time.Hour
)

// RedisStore keeps each room as one JSON value with a sliding expiration.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. ttl <= 0 uses DefaultRoomTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Load reads a room; ErrRoomNotFound if the key is absent.
func (rs *RedisStore) Load(ctx context.Context, roomID string) (*room.Room, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	var r room.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &r, nil
}

// Save writes a room and refreshes its expiration.
func (rs *RedisStore) Save(ctx context.Context, roomID string, r *room.Room) error {
	if r == nil {
		return fmt.Errorf("save room %s: nil room", roomID)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", roomID, err)
	}
	if err := rs.client.Set(ctx, roomKeyPrefix+roomID, data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", roomID, err)
	}
	return nil
}

// Delete removes a room ahead of its expiration.
func (rs *RedisStore) Delete(ctx context.Context, roomID string) error {
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}

// RoomIDs lists every stored room that has not expired yet.
func (rs *RedisStore) RoomIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}
