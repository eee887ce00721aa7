package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/server/storage"
	"github.com/palemoky/cluegrid/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

// handleGetLeaderboard lists the top players of a period.
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	if h.leaderboard == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(apperrors.ReasonStoreUnavailable, "leaderboard unavailable"))
		return
	}

	payload, err := protocol.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		payload = &protocol.GetLeaderboardPayload{}
	}
	period := storage.ParsePeriod(payload.Period)
	limit := ClampLimit(payload.Limit)

	entries, err := h.leaderboard.GetLeaderboard(context.Background(), period, limit)
	if err != nil {
		log.Warn().Err(err).Str("period", string(period)).Msg("leaderboard query failed")
		client.SendMessage(protocol.NewErrorMessage(apperrors.ErrStoreUnavailable))
		return
	}
	if entries == nil {
		entries = []storage.LeaderboardEntry{}
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboard, protocol.LeaderboardPayload{
		Period:  period,
		Entries: entries,
	}))
}

// ClampLimit bounds a requested leaderboard size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > maxLeaderboardLimit {
		return defaultLeaderboardLimit
	}
	return limit
}
