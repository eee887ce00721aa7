package handler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/types"
)

// handlePing answers a heartbeat immediately.
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect moves a fresh connection onto a dropped player's seat.
func (h *Handler) handleReconnect(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil || payload.PlayerID == "" || payload.Token == "" {
		client.SendMessage(protocol.NewErrorMessage(apperrors.ErrInvalidPayload))
		return
	}

	sess, ok := h.sessions.Resume(payload.Token, payload.PlayerID)
	if !ok {
		client.SendMessage(protocol.NewErrorMessageWithText(apperrors.ReasonForbidden, "reconnect token invalid or expired"))
		return
	}

	// the connection was greeted under a temporary id; drop it
	oldID := client.GetID()
	h.server.UnregisterClient(oldID)
	h.sessions.DeleteSession(oldID)

	client.SetID(sess.PlayerID)
	h.server.RegisterClient(sess.PlayerID, client)

	reply := protocol.ReconnectedPayload{PlayerID: sess.PlayerID}
	if sess.RoomID != "" {
		h.restoreRoom(client, sess.RoomID, &reply)
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, reply))
	log.Info().Str("player", sess.PlayerID).Str("room", sess.RoomID).Msg("player reconnected")
}

func (h *Handler) restoreRoom(client types.ClientInterface, roomID string, reply *protocol.ReconnectedPayload) {
	r, err := h.controller.Snapshot(context.Background(), roomID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrRoomNotFound) {
			log.Warn().Err(err).Str("room", roomID).Msg("room not restored")
		}
		return
	}
	if !r.HasPlayer(client.GetID()) {
		return
	}
	client.SetRoom(roomID)
	reply.RoomID = roomID
	reply.Room = r
}

// HandleDisconnect keeps the seat of a dropped client open for reconnection.
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	if h.sessions != nil {
		h.sessions.SetOffline(client.GetID())
	}
}
