package protocol

import (
	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/engine"
	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/server/storage"
)

// --- client requests ---

// ActionPayload carries the fields of every game action.
// RoomID is read by join-room only; later actions target the connection's room.
type ActionPayload struct {
	RoomID    string      `json:"roomId,omitempty"`
	Name      string      `json:"name,omitempty"`
	MaxRounds int         `json:"maxRounds,omitempty"`
	Clue      string      `json:"clue,omitempty"`
	Target    *room.Coord `json:"target,omitempty"`
	X         *int        `json:"x,omitempty"`
	Y         *int        `json:"y,omitempty"`
}

// PingPayload is a heartbeat.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // client clock, ms
}

// ReconnectPayload resumes a dropped connection.
type ReconnectPayload struct {
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// GetLeaderboardPayload selects a board.
type GetLeaderboardPayload struct {
	Period string `json:"period"` // total/daily/weekly
	Limit  int    `json:"limit"`
}

// --- server responses ---

// ConnectedPayload greets a new connection.
type ConnectedPayload struct {
	PlayerID       string `json:"playerId"`
	ReconnectToken string `json:"reconnectToken"`
}

// ReconnectedPayload confirms a resumed seat.
type ReconnectedPayload struct {
	PlayerID string     `json:"playerId"`
	RoomID   string     `json:"roomId,omitempty"`
	Room     *room.Room `json:"room,omitempty"`
}

// PongPayload answers a ping.
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// RoomStatePayload is broadcast after every applied action.
type RoomStatePayload struct {
	Room   *room.Room     `json:"room"`
	Events []engine.Event `json:"events,omitempty"`
}

// LeaderboardPayload lists a board.
type LeaderboardPayload struct {
	Period  storage.Period             `json:"period"`
	Entries []storage.LeaderboardEntry `json:"entries"`
}

// PlayerStandingPayload is one player's rank on the total board and career stats.
type PlayerStandingPayload struct {
	Name  string               `json:"name"`
	Rank  int64                `json:"rank"` // -1 when unranked
	Stats *storage.PlayerStats `json:"stats,omitempty"`
}

// RoomListPayload lists the rooms the store still holds.
type RoomListPayload struct {
	Rooms []string `json:"rooms"`
}

// ErrorPayload reports a rejected request.
type ErrorPayload struct {
	Code    apperrors.Reason `json:"code"`
	Message string           `json:"message"`
}
