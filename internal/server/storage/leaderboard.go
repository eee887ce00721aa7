package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/cluegrid/internal/game/room"
)

const (
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
	recordedGameKey   = "leaderboard:recorded:"

	dailyRetention  = 48 * time.Hour
	weeklyRetention = 8 * 24 * time.Hour
)

// Period selects which board to read.
type Period string

const (
	PeriodTotal  Period = "total"
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// ParsePeriod maps a query value to a Period; anything unknown reads the total board.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(s)) {
	case PeriodDaily:
		return PeriodDaily
	case PeriodWeekly:
		return PeriodWeekly
	default:
		return PeriodTotal
	}
}

// PlayerStats accumulates finished games for one player name.
type PlayerStats struct {
	PlayerName string `json:"player_name"`

	TotalGames  int `json:"total_games"`
	Wins        int `json:"wins"`
	TotalPoints int `json:"total_points"`
	BestGame    int `json:"best_game"`

	CurrentStreak int `json:"current_streak"`
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// LeaderboardEntry is one row of a board.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Points     int     `json:"points"`
	Wins       int     `json:"wins"`
	Games      int     `json:"games"`
	WinRate    float64 `json:"win_rate"`
}

// LeaderboardManager records final standings in Redis sorted sets.
// Players are keyed by name since player ids only live as long as a room.
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager creates a leaderboard on client.
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

func statsMember(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetPlayerStats returns nil, nil for a player that never finished a game.
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+statsMember(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats for %s: %w", name, err)
	}
	return &stats, nil
}

func (lm *LeaderboardManager) savePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+statsMember(stats.PlayerName), data, 0).Err()
}

// RecordGameResult folds the final standings of a room into every board.
// Players sharing the top score all win; a game where nobody scored has no winner.
// A room is recorded at most once.
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, roomID string, players []room.Player) error {
	first, err := lm.redis.SetNX(ctx, recordedGameKey+roomID, 1, weeklyRetention).Result()
	if err != nil {
		return fmt.Errorf("mark room %s recorded: %w", roomID, err)
	}
	if !first {
		return nil
	}

	top := 0
	for _, p := range players {
		top = max(top, p.Score)
	}

	now := lm.now()
	for _, p := range players {
		won := top > 0 && p.Score == top
		if err := lm.recordPlayer(ctx, p, won, now); err != nil {
			return fmt.Errorf("record %s: %w", p.Name, err)
		}
	}
	return nil
}

func (lm *LeaderboardManager) recordPlayer(ctx context.Context, p room.Player, won bool, now time.Time) error {
	stats, err := lm.GetPlayerStats(ctx, p.Name)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &PlayerStats{CreatedAt: now.Unix()}
	}

	stats.PlayerName = p.Name
	stats.TotalGames++
	stats.TotalPoints += p.Score
	stats.BestGame = max(stats.BestGame, p.Score)
	stats.LastPlayedAt = now.Unix()
	if won {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}
	stats.MaxWinStreak = max(stats.MaxWinStreak, stats.CurrentStreak)

	if err := lm.savePlayerStats(ctx, stats); err != nil {
		return err
	}

	member := statsMember(p.Name)
	points := float64(p.Score)

	pipe := lm.redis.TxPipeline()
	pipe.ZIncrBy(ctx, leaderboardKey, points, member)
	daily := boardKey(PeriodDaily, now)
	pipe.ZIncrBy(ctx, daily, points, member)
	pipe.Expire(ctx, daily, dailyRetention)
	weekly := boardKey(PeriodWeekly, now)
	pipe.ZIncrBy(ctx, weekly, points, member)
	pipe.Expire(ctx, weekly, weeklyRetention)
	_, err = pipe.Exec(ctx)
	return err
}

func boardKey(period Period, now time.Time) string {
	switch period {
	case PeriodDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// GetLeaderboard returns the top limit players of a board, highest first.
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, period Period, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := lm.redis.ZRevRangeWithScores(ctx, boardKey(period, lm.now()), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		member, _ := result.Member.(string)
		entry := LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: member,
			Points:     int(result.Score),
		}

		stats, err := lm.GetPlayerStats(ctx, member)
		if err != nil {
			return nil, err
		}
		if stats != nil {
			entry.PlayerName = stats.PlayerName
			entry.Wins = stats.Wins
			entry.Games = stats.TotalGames
			if stats.TotalGames > 0 {
				entry.WinRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPlayerRank returns the 1-based rank on the total board, or -1 if unranked.
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, name string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, statsMember(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
