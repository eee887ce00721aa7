// Package handler routes WebSocket messages to the session controller.
package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/logger"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/server/session"
	"github.com/palemoky/cluegrid/internal/server/storage"
	"github.com/palemoky/cluegrid/internal/types"
)

// LeaderboardReader serves get-leaderboard requests.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, period storage.Period, limit int) ([]storage.LeaderboardEntry, error)
}

// HandlerDeps are the collaborators of a Handler.
// Leaderboard may be nil when the server runs without Redis.
type HandlerDeps struct {
	Server      types.ServerInterface
	Controller  *session.Controller
	Sessions    *session.SessionManager
	Leaderboard LeaderboardReader
}

// Handler dispatches decoded messages.
type Handler struct {
	server      types.ServerInterface
	controller  *session.Controller
	sessions    *session.SessionManager
	leaderboard LeaderboardReader
	handlers    map[protocol.MessageType]handlerFunc
}

type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler creates a handler.
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		controller:  deps.Controller,
		sessions:    deps.Sessions,
		leaderboard: deps.Leaderboard,
	}
	h.initHandlers()
	return h
}

func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// connection
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// game actions
		protocol.MsgJoinRoom:   h.handleAction,
		protocol.MsgStartGame:  h.handleAction,
		protocol.MsgSubmitClue: h.handleAction,
		protocol.MsgPlaceChip:  h.handleAction,
		protocol.MsgEndRound:   h.handleAction,
		protocol.MsgNextRound:  h.handleAction,

		// queries
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle processes one message from client.
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			client.SendMessage(protocol.NewErrorMessage(apperrors.ErrInternal))
		}
	}()

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warn().Str("type", string(msg.Type)).Str("player", client.GetID()).
		Int("payload_bytes", len(msg.Payload)).Msg("unknown message type")
	client.SendMessage(protocol.NewErrorMessage(apperrors.ErrUnknownAction))
}
