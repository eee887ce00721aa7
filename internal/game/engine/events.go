package engine

import "github.com/palemoky/cluegrid/internal/game/room"

// EventType names something a transition changed.
type EventType string

const (
	EventPlayerJoined  EventType = "PLAYER_JOINED"
	EventGameStarted   EventType = "GAME_STARTED"
	EventClueSubmitted EventType = "CLUE_SUBMITTED"
	EventChipPlaced    EventType = "CHIP_PLACED"
	EventTurnAdvanced  EventType = "TURN_ADVANCED"
	EventRoundEnded    EventType = "ROUND_ENDED"
	EventGameOver      EventType = "GAME_OVER"
	EventRoundStarted  EventType = "ROUND_STARTED"
)

// Event is broadcast alongside the new room state.
type Event struct {
	Type     EventType   `json:"type"`
	PlayerID string      `json:"playerId,omitempty"`
	Round    int         `json:"round,omitempty"`
	Cell     *room.Coord `json:"cell,omitempty"`
	Points   int         `json:"points,omitempty"`
}
