package action

import "github.com/palemoky/cluegrid/internal/game/room"

// Type names a player action. The values double as wire names.
type Type string

const (
	JoinRoom   Type = "join-room"
	StartGame  Type = "start-game"
	SubmitClue Type = "submit-clue"
	PlaceChip  Type = "place-chip"
	EndRound   Type = "end-round"
	NextRound  Type = "next-round"
)

// Types lists every supported action.
var Types = []Type{JoinRoom, StartGame, SubmitClue, PlaceChip, EndRound, NextRound}

// Valid reports whether t is a supported action.
func (t Type) Valid() bool {
	switch t {
	case JoinRoom, StartGame, SubmitClue, PlaceChip, EndRound, NextRound:
		return true
	}
	return false
}

// Action is one player request. Only the fields of its Type are read:
//
//	join-room   {name}
//	start-game  {maxRounds?}
//	submit-clue {clue, target?}
//	place-chip  {x, y}
//	end-round   {}
//	next-round  {}
type Action struct {
	Type      Type        `json:"type"`
	Name      string      `json:"name,omitempty"`
	MaxRounds int         `json:"maxRounds,omitempty"`
	Clue      string      `json:"clue,omitempty"`
	Target    *room.Coord `json:"target,omitempty"`
	X         int         `json:"x"`
	Y         int         `json:"y"`
}

// Join builds a join-room action.
func Join(name string) Action { return Action{Type: JoinRoom, Name: name} }

// Start builds a start-game action; maxRounds 0 keeps the room default.
func Start(maxRounds int) Action { return Action{Type: StartGame, MaxRounds: maxRounds} }

// Clue builds a submit-clue action. target may be nil.
func Clue(clue string, target *room.Coord) Action {
	return Action{Type: SubmitClue, Clue: clue, Target: target}
}

// Place builds a place-chip action.
func Place(x, y int) Action { return Action{Type: PlaceChip, X: x, Y: y} }

// End builds an end-round action.
func End() Action { return Action{Type: EndRound} }

// Next builds a next-round action.
func Next() Action { return Action{Type: NextRound} }
