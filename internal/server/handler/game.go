package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/types"
)

// handleAction runs a game action for the client and broadcasts the new room.
func (h *Handler) handleAction(client types.ClientInterface, msg *protocol.Message) {
	a, roomID, err := protocol.ToAction(msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(err))
		return
	}

	if a.Type == action.JoinRoom {
		if h.server.IsMaintenanceMode() {
			client.SendMessage(protocol.NewErrorMessage(apperrors.ErrMaintenance))
			return
		}
		if roomID == "" {
			client.SendMessage(protocol.NewErrorMessageWithText(apperrors.ReasonInvalidPayload, "roomId is required"))
			return
		}
	} else {
		// later actions always target the room the connection joined
		roomID = client.GetRoom()
		if roomID == "" {
			client.SendMessage(protocol.NewErrorMessage(apperrors.ErrNotInRoom))
			return
		}
	}

	out, err := h.controller.Dispatch(context.Background(), roomID, client.GetID(), a)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Str("player", client.GetID()).Msg("action failed")
		client.SendMessage(protocol.NewErrorMessage(apperrors.ErrInternal))
		return
	}
	if !out.Applied() {
		client.SendMessage(protocol.NewErrorMessageWithText(out.Reason, out.Message))
		return
	}

	if a.Type == action.JoinRoom {
		client.SetRoom(roomID)
		if h.sessions != nil {
			h.sessions.SetRoom(client.GetID(), roomID)
		}
	}

	h.server.BroadcastToRoom(roomID, protocol.MustNewMessage(protocol.MsgRoomState, protocol.RoomStatePayload{
		Room:   out.Room,
		Events: out.Events,
	}))
}
