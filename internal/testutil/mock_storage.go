//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/server/storage"
)

// MockStore implements storage.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context, roomID string) (*room.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so callers cannot change the fixture between calls
	return args.Get(0).(*room.Room).Clone(), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, roomID string, r *room.Room) error {
	args := m.Called(ctx, roomID, r)
	return args.Error(0)
}

// MockLeaderboard implements the game-result recorder and the leaderboard reader.
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) RecordGameResult(ctx context.Context, roomID string, players []room.Player) error {
	args := m.Called(ctx, roomID, players)
	return args.Error(0)
}

func (m *MockLeaderboard) GetLeaderboard(ctx context.Context, period storage.Period, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}
