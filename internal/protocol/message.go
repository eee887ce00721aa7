// Package protocol defines the JSON envelope exchanged over WebSocket.
package protocol

import "encoding/json"

// Message is the envelope of every frame.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType names a frame.
type MessageType string

// Client → server. Game actions reuse the action names.
const (
	MsgJoinRoom   MessageType = "join-room"
	MsgStartGame  MessageType = "start-game"
	MsgSubmitClue MessageType = "submit-clue"
	MsgPlaceChip  MessageType = "place-chip"
	MsgEndRound   MessageType = "end-round"
	MsgNextRound  MessageType = "next-round"

	MsgPing           MessageType = "ping"
	MsgReconnect      MessageType = "reconnect"
	MsgGetLeaderboard MessageType = "get-leaderboard"
)

// Server → client
const (
	MsgConnected   MessageType = "connected"
	MsgReconnected MessageType = "reconnected"
	MsgPong        MessageType = "pong"
	MsgRoomState   MessageType = "room_state"
	MsgLeaderboard MessageType = "leaderboard"
	MsgError       MessageType = "error"
)

// IsAction reports whether t carries a game action.
func (t MessageType) IsAction() bool {
	switch t {
	case MsgJoinRoom, MsgStartGame, MsgSubmitClue, MsgPlaceChip, MsgEndRound, MsgNextRound:
		return true
	}
	return false
}
