package client

import (
	"time"

	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/protocol"
)

// JoinRoom takes a seat in roomID, creating the room if needed.
func (c *Client) JoinRoom(roomID, name string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgJoinRoom, protocol.ActionPayload{
		RoomID: roomID,
		Name:   name,
	}))
}

// StartGame starts the room's game; 0 rounds uses the server default.
func (c *Client) StartGame(maxRounds int) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgStartGame, protocol.ActionPayload{MaxRounds: maxRounds}))
}

// SubmitClue gives the round's clue. target may be nil.
func (c *Client) SubmitClue(clue string, target *room.Coord) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgSubmitClue, protocol.ActionPayload{
		Clue:   clue,
		Target: target,
	}))
}

// PlaceChip guesses cell (x, y).
func (c *Client) PlaceChip(x, y int) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPlaceChip, protocol.ActionPayload{X: &x, Y: &y}))
}

// EndRound scores the current round.
func (c *Client) EndRound() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgEndRound, nil))
}

// NextRound starts the following round.
func (c *Client) NextRound() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgNextRound, nil))
}

// GetLeaderboard asks for a board: total, daily or weekly.
func (c *Client) GetLeaderboard(period string, limit int) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{
		Period: period,
		Limit:  limit,
	}))
}

// Ping measures latency; the answer updates Latency.
func (c *Client) Ping() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}

// Reconnect asks the server to move this connection onto the saved seat.
func (c *Client) Reconnect() error {
	c.mu.RLock()
	playerID, token := c.playerID, c.token
	c.mu.RUnlock()
	if playerID == "" || token == "" {
		return ErrNoSession
	}
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgReconnect, protocol.ReconnectPayload{
		PlayerID: playerID,
		Token:    token,
	}))
}

// runHeartbeat pings every interval while a connection is attached, until Close.
func (c *Client) runHeartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.IsConnected() {
				_ = c.Ping()
			}
		case <-c.done:
			return
		}
	}
}
