package room

import (
	"fmt"
	"slices"
)

// Phase is the room's position in its state machine.
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"       // waiting for players
	PhaseClueGiving Phase = "CLUE_GIVING" // clue-giver must submit a clue
	PhaseGuessing   Phase = "GUESSING"    // guessers place chips in turn
	PhaseRoundEnd   Phase = "ROUND_END"   // round scored, waiting for next-round
	PhaseGameOver   Phase = "GAME_OVER"   // final standings, terminal
)

// phaseTransitions is the single source of truth for legal phase changes.
var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseClueGiving},
	PhaseClueGiving: {PhaseGuessing, PhaseRoundEnd, PhaseGameOver},
	PhaseGuessing:   {PhaseRoundEnd, PhaseGameOver},
	PhaseRoundEnd:   {PhaseClueGiving},
	PhaseGameOver:   {},
}

// String returns the wire form of the phase.
func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	_, ok := phaseTransitions[p]
	return ok
}

// InRound reports whether a round is being played (a clue-giver is active).
func (p Phase) InRound() bool {
	return p == PhaseClueGiving || p == PhaseGuessing
}

// CanTransitionTo reports whether moving from p to target is legal.
// Staying in the same phase is always allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
	if p == target {
		return p.Valid()
	}
	return slices.Contains(phaseTransitions[p], target)
}

// ParsePhase converts a wire string to a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// UnmarshalText rejects phase strings outside the closed enumeration.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
