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

func newTestLeaderboardManager(t *testing.T) (*LeaderboardManager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	lm := NewLeaderboardManager(client)
	lm.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return lm, mr
}

func finalStandings(alice, bob int) []room.Player {
	return []room.Player{
		{ID: "p1", Name: "Alice", Score: alice},
		{ID: "p2", Name: "Bob", Score: bob},
	}
}

func TestLeaderboard_RecordGameResult(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "R1", finalStandings(5, 3)))

	alice, err := lm.GetPlayerStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "Alice", alice.PlayerName)
	assert.Equal(t, 1, alice.TotalGames)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 5, alice.TotalPoints)
	assert.Equal(t, 1, alice.CurrentStreak)

	bob, err := lm.GetPlayerStats(ctx, "Bob")
	require.NoError(t, err)
	assert.Zero(t, bob.Wins)
	assert.Equal(t, -1, bob.CurrentStreak)
}

func TestLeaderboard_RecordsRoomOnce(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "R1", finalStandings(5, 3)))
	require.NoError(t, lm.RecordGameResult(ctx, "R1", finalStandings(5, 3)))

	stats, err := lm.GetPlayerStats(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGames)
}

func TestLeaderboard_TiesAndNoWinner(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "R1", finalStandings(4, 4)))
	require.NoError(t, lm.RecordGameResult(ctx, "R2", finalStandings(0, 0)))

	for _, name := range []string{"Alice", "Bob"} {
		stats, err := lm.GetPlayerStats(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalGames, name)
		assert.Equal(t, 1, stats.Wins, name)
		assert.Equal(t, 1, stats.MaxWinStreak, name)
	}
}

func TestLeaderboard_GetLeaderboard(t *testing.T) {
	t.Parallel()

	lm, mr := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "R1", finalStandings(5, 3)))
	require.NoError(t, lm.RecordGameResult(ctx, "R2", finalStandings(1, 6)))

	entries, err := lm.GetLeaderboard(ctx, PeriodTotal, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bob", entries[0].PlayerName)
	assert.Equal(t, 9, entries[0].Points)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 50.0, entries[0].WinRate)
	assert.Equal(t, "Alice", entries[1].PlayerName)
	assert.Equal(t, 6, entries[1].Points)

	daily, err := lm.GetLeaderboard(ctx, PeriodDaily, 1)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "Bob", daily[0].PlayerName)
	assert.True(t, mr.Exists("leaderboard:daily:2026-03-04"))
	assert.True(t, mr.Exists("leaderboard:weekly:2026-W10"))

	rank, err := lm.GetPlayerRank(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lm.GetPlayerRank(ctx, "Nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PeriodDaily, ParsePeriod("DAILY"))
	assert.Equal(t, PeriodWeekly, ParsePeriod("weekly"))
	assert.Equal(t, PeriodTotal, ParsePeriod(""))
	assert.Equal(t, PeriodTotal, ParsePeriod("monthly"))
}
