package room

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a room that no sequence of legal transitions can produce.
// It is a programmer error: the mutation that produced it must be discarded.
var ErrInvariantViolation = errors.New("room invariant violated")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// CheckInvariants validates a single room snapshot.
func (r *Room) CheckInvariants() error {
	if !r.Phase.Valid() {
		return violation("unknown phase %q", r.Phase)
	}
	if r.Phase == PhaseLobby && r.Round != 0 {
		return violation("round %d in lobby", r.Round)
	}
	if r.Phase != PhaseLobby {
		if len(r.Players) == 0 {
			return violation("no players in phase %s", r.Phase)
		}
		if r.MaxRounds < 1 {
			return violation("maxRounds %d", r.MaxRounds)
		}
		if r.Round < 1 || r.Round > r.MaxRounds {
			return violation("round %d outside 1..%d", r.Round, r.MaxRounds)
		}
	}
	if r.OwnerID != "" && !r.HasPlayer(r.OwnerID) {
		return violation("owner %s is not seated", r.OwnerID)
	}

	ids := make(map[string]bool, len(r.Players))
	colors := make(map[string]bool, len(r.Players))
	givers := 0
	for _, p := range r.Players {
		if p.ID == "" || ids[p.ID] {
			return violation("duplicate or empty player id %q", p.ID)
		}
		ids[p.ID] = true
		if p.Name == "" {
			return violation("player %s has no name", p.ID)
		}
		if p.ChipColor != "" {
			if colors[p.ChipColor] {
				return violation("chip color %s assigned twice", p.ChipColor)
			}
			colors[p.ChipColor] = true
		}
		if p.Score < 0 || p.CurrentRoundScore < 0 {
			return violation("negative score for player %s", p.ID)
		}
		if p.IsClueGiver {
			givers++
			if p.ID != r.ClueGiverID {
				return violation("player %s flagged as clue-giver but clueGiverId is %q", p.ID, r.ClueGiverID)
			}
		}
	}

	if r.Phase.InRound() {
		if givers != 1 {
			return violation("%d clue-givers in phase %s", givers, r.Phase)
		}
	} else if givers != 0 || r.ClueGiverID != "" {
		return violation("clue-giver set in phase %s", r.Phase)
	}

	if r.Phase == PhaseGuessing && (r.TurnIndex < 0 || r.TurnIndex >= len(r.Players)) {
		return violation("turn index %d out of range", r.TurnIndex)
	}

	for x := range r.Grid {
		for y, id := range r.Grid[x] {
			if id != "" && !ids[id] {
				return violation("cell (%d,%d) held by unknown player %s", x, y, id)
			}
		}
	}
	return nil
}

// CheckTransition validates the relation between two consecutive snapshots of one room.
func CheckTransition(prev, next *Room) error {
	if prev == nil || next == nil {
		return violation("missing snapshot")
	}
	if prev.ID != next.ID {
		return violation("room id changed from %s to %s", prev.ID, next.ID)
	}
	if prev.OwnerID != "" && prev.OwnerID != next.OwnerID {
		return violation("owner changed from %s to %s", prev.OwnerID, next.OwnerID)
	}
	if !prev.Phase.CanTransitionTo(next.Phase) {
		return violation("illegal phase change %s -> %s", prev.Phase, next.Phase)
	}
	if next.Round < prev.Round {
		return violation("round decreased from %d to %d", prev.Round, next.Round)
	}
	if next.Round > prev.Round+1 {
		return violation("round jumped from %d to %d", prev.Round, next.Round)
	}

	if len(next.Players) < len(prev.Players) {
		return violation("players removed")
	}
	for i, p := range prev.Players {
		if next.Players[i].ID != p.ID {
			return violation("seat %d changed from %s to %s", i, p.ID, next.Players[i].ID)
		}
	}
	if prev.Phase != PhaseLobby && len(next.Players) != len(prev.Players) {
		return violation("player joined after the game started")
	}

	// A game in progress never loses a chip; a fresh game (lobby -> clue-giving) starts clean.
	if prev.Phase != PhaseLobby {
		for _, c := range prev.Grid.OccupiedCells() {
			if !next.Grid.InBounds(c.X, c.Y) || next.Grid.At(c.X, c.Y) != prev.Grid.At(c.X, c.Y) {
				return violation("occupied cell (%d,%d) changed", c.X, c.Y)
			}
		}
	}
	return nil
}
