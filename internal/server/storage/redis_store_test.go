package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/cluegrid/internal/game/room"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func sampleRoom() *room.Room {
	r := room.New("TEST123", room.DefaultRules())
	r.Players = []room.Player{
		{ID: "p1", Name: "Alice", ChipColor: "red", IsClueGiver: true, Answers: []room.Answer{}, Guesses: []room.Coord{}},
		{ID: "p2", Name: "Bob", ChipColor: "blue", Answers: []room.Answer{{X: 2, Y: 3, Points: 3}}, Guesses: []room.Coord{{X: 2, Y: 3}}},
	}
	r.OwnerID = "p1"
	r.Phase = room.PhaseGuessing
	r.Round = 1
	r.MaxRounds = 5
	r.ClueGiverID = "p1"
	r.TurnIndex = 1
	r.CurrentClue = &room.Clue{Clue: "animal", Giver: "p1"}
	r.Clues = []room.Clue{*r.CurrentClue}
	r.BoardState.ActiveCard = &room.Coord{X: 2, Y: 3}
	r.Grid[2][3] = "p2"
	r.CreatedAt = time.Unix(1700000000, 0).UTC()
	r.UpdatedAt = r.CreatedAt
	return r
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()
	r := sampleRoom()

	require.NoError(t, store.Save(ctx, r.ID, r))

	loaded, err := store.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)

	ids, err := store.RoomIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEST123"}, ids)

	require.NoError(t, store.Delete(ctx, r.ID))
	_, err = store.Load(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	ids, err = store.RoomIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRedisStore_Expiration(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()
	r := sampleRoom()

	require.NoError(t, store.Save(ctx, r.ID, r))
	assert.Equal(t, time.Minute, mr.TTL(roomKeyPrefix+r.ID))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRedisStore_RejectsLegacyPhase(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, 0)
	require.NoError(t, mr.Set(roomKeyPrefix+"OLD", `{"id":"OLD","phase":"PLAYING"}`))

	_, err := store.Load(context.Background(), "OLD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRoomNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, 0)
	mr.Close()

	err := store.Save(context.Background(), "R", sampleRoom())
	assert.Error(t, err)
	_, err = store.Load(context.Background(), "R")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRoomNotFound)
}
