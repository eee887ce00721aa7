package rule

import (
	"strings"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/game/room"
)

// Validate reports whether actorID may perform a on r right now.
// It returns nil or a *apperrors.GameError and never mutates r.
func Validate(r *room.Room, actorID string, a action.Action) error {
	switch a.Type {
	case action.JoinRoom:
		return validateJoin(r, actorID, a)
	case action.StartGame:
		return validateStart(r, actorID, a)
	case action.SubmitClue:
		return validateClue(r, actorID, a)
	case action.PlaceChip:
		return validatePlace(r, actorID, a)
	case action.EndRound:
		return validateEndRound(r, actorID)
	case action.NextRound:
		return validateNextRound(r, actorID)
	default:
		return apperrors.ErrUnknownAction
	}
}

func validateJoin(r *room.Room, actorID string, a action.Action) error {
	if r.Phase != room.PhaseLobby {
		return apperrors.ErrGameAlreadyStarted
	}
	if strings.TrimSpace(a.Name) == "" {
		return apperrors.New(apperrors.ReasonInvalidPayload, "name must not be empty")
	}
	if r.HasPlayer(actorID) {
		return apperrors.ErrAlreadyJoined
	}
	if r.Rules.MaxPlayers > 0 && len(r.Players) >= r.Rules.MaxPlayers {
		return apperrors.ErrRoomFull
	}
	return nil
}

func validateStart(r *room.Room, actorID string, a action.Action) error {
	if r.Phase != room.PhaseLobby {
		return apperrors.ErrGameAlreadyStarted
	}
	if actorID == "" || actorID != r.OwnerID {
		return apperrors.ErrForbidden
	}
	if len(r.Players) < minPlayers(r.Rules) {
		return apperrors.ErrNotEnoughPlayers
	}
	if a.MaxRounds < 0 {
		return apperrors.New(apperrors.ReasonInvalidPayload, "maxRounds must not be negative")
	}
	return nil
}

func validateClue(r *room.Room, actorID string, a action.Action) error {
	if r.Phase != room.PhaseClueGiving {
		return apperrors.ErrInvalidPhase
	}
	if actorID == "" || actorID != r.ClueGiverID {
		return apperrors.ErrPermissionDenied
	}
	if strings.TrimSpace(a.Clue) == "" {
		return apperrors.New(apperrors.ReasonInvalidPayload, "clue must not be empty")
	}
	if a.Target != nil && !r.Grid.InBounds(a.Target.X, a.Target.Y) {
		return apperrors.ErrOutOfBounds
	}
	// legal play never reaches this: submit-clue leaves CLUE_GIVING and next-round
	// clears the clue. It holds for rooms built or stored by other means.
	if r.CurrentClue != nil {
		return apperrors.ErrClueAlreadySubmitted
	}
	return nil
}

func validatePlace(r *room.Room, actorID string, a action.Action) error {
	if r.Phase != room.PhaseGuessing {
		return apperrors.ErrInvalidPhase
	}
	if actorID == "" || actorID != r.TurnPlayerID() {
		return apperrors.ErrNotYourTurn
	}
	if !r.Grid.InBounds(a.X, a.Y) {
		return apperrors.ErrOutOfBounds
	}
	if r.Grid.Occupied(a.X, a.Y) {
		return apperrors.ErrCellOccupied
	}
	return nil
}

func validateEndRound(r *room.Room, actorID string) error {
	if !r.HasPlayer(actorID) {
		return apperrors.ErrNotInRoom
	}
	switch r.Phase {
	case room.PhaseGuessing:
		return nil
	case room.PhaseClueGiving:
		if r.Rules.AllowForfeit {
			return nil
		}
	}
	return apperrors.ErrInvalidPhase
}

func validateNextRound(r *room.Room, actorID string) error {
	if !r.HasPlayer(actorID) {
		return apperrors.ErrNotInRoom
	}
	if r.Phase == room.PhaseGameOver {
		return apperrors.ErrGameAlreadyOver
	}
	if r.Phase != room.PhaseRoundEnd {
		return apperrors.ErrInvalidPhase
	}
	if r.Round >= r.MaxRounds {
		return apperrors.ErrGameAlreadyOver
	}
	return nil
}

func minPlayers(rules room.Rules) int {
	if rules.MinPlayers < 2 {
		return 2
	}
	return rules.MinPlayers
}
