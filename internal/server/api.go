package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/server/handler"
	"github.com/palemoky/cluegrid/internal/server/storage"
)

const maxActionBody = 4096

// actionRequest is the body of POST /rooms/{roomID}/actions.
type actionRequest struct {
	ActorID string               `json:"actorId"`
	Type    protocol.MessageType `json:"type"`
	protocol.ActionPayload
}

// StatusFor maps a rejection reason to an HTTP status.
func StatusFor(reason apperrors.Reason) int {
	switch reason {
	case apperrors.ReasonInvalidPayload, apperrors.ReasonUnknownAction:
		return http.StatusBadRequest
	case apperrors.ReasonForbidden, apperrors.ReasonPermissionDenied, apperrors.ReasonNotInRoom:
		return http.StatusForbidden
	case apperrors.ReasonRoomNotFound:
		return http.StatusNotFound
	case apperrors.ReasonRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ReasonStoreUnavailable, apperrors.ReasonMaintenance:
		return http.StatusServiceUnavailable
	case apperrors.ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func (s *Server) handlePostAction(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req actionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.ReasonInvalidPayload, "malformed body"))
		return
	}
	a, err := req.ActionPayload.Action(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	if a.Type == action.JoinRoom && s.IsMaintenanceMode() {
		writeError(w, apperrors.ErrMaintenance)
		return
	}

	out, err := s.controller.Dispatch(r.Context(), roomID, req.ActorID, a)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("action failed")
		writeError(w, apperrors.ErrInternal)
		return
	}

	if out.Applied() {
		s.BroadcastToRoom(roomID, protocol.MustNewMessage(protocol.MsgRoomState, protocol.RoomStatePayload{
			Room:   out.Room,
			Events: out.Events,
		}))
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, StatusFor(out.Reason), out)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.controller.Snapshot(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, apperrors.New(apperrors.ReasonStoreUnavailable, "leaderboard unavailable"))
		return
	}

	q := r.URL.Query()
	period := storage.ParsePeriod(q.Get("period"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := s.leaderboard.GetLeaderboard(r.Context(), period, handler.ClampLimit(limit))
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard query failed")
		writeError(w, apperrors.ErrStoreUnavailable)
		return
	}
	if entries == nil {
		entries = []storage.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, protocol.LeaderboardPayload{Period: period, Entries: entries})
}

func (s *Server) handleGetPlayerStanding(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, apperrors.New(apperrors.ReasonStoreUnavailable, "leaderboard unavailable"))
		return
	}

	name := chi.URLParam(r, "name")
	rank, err := s.leaderboard.GetPlayerRank(r.Context(), name)
	if err != nil {
		log.Warn().Err(err).Str("player", name).Msg("rank query failed")
		writeError(w, apperrors.ErrStoreUnavailable)
		return
	}
	stats, err := s.leaderboard.GetPlayerStats(r.Context(), name)
	if err != nil {
		log.Warn().Err(err).Str("player", name).Msg("stats query failed")
		writeError(w, apperrors.ErrStoreUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, protocol.PlayerStandingPayload{Name: name, Rank: rank, Stats: stats})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.roomIDs(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("room listing failed")
		writeError(w, apperrors.ErrStoreUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, protocol.RoomListPayload{Rooms: ids})
}

// roomIDs lists stored rooms when the store can enumerate them.
func (s *Server) roomIDs(ctx context.Context) ([]string, error) {
	lister, ok := s.store.(storage.Lister)
	if !ok {
		return []string{}, nil
	}
	return lister.RoomIDs(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response not written")
	}
}

// writeError reports err as {code, message}; unknown errors become INTERNAL.
func writeError(w http.ResponseWriter, err error) {
	var gameErr *apperrors.GameError
	if !errors.As(err, &gameErr) {
		gameErr = apperrors.ErrInternal
	}
	writeJSON(w, StatusFor(gameErr.Reason), protocol.ErrorPayload{Code: gameErr.Reason, Message: gameErr.Message})
}
