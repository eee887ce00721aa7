// Package engine computes the next room state for each player action.
//
// Every function here is pure: it clones its input and returns the new room,
// so a rejected or discarded transition can never leak into the stored state.
// Callers validate with rule.Validate first; the engine assumes a legal action.
package engine

import (
	"fmt"
	"strings"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/game/room"
)

// Transition applies a to r on behalf of actorID.
// The only error is an unsupported action type.
func Transition(r *room.Room, actorID string, a action.Action) (*room.Room, []Event, error) {
	switch a.Type {
	case action.JoinRoom:
		next, events := Join(r, actorID, a.Name)
		return next, events, nil
	case action.StartGame:
		next, events := StartGame(r, a.MaxRounds)
		return next, events, nil
	case action.SubmitClue:
		next, events := SubmitClue(r, actorID, a.Clue, a.Target)
		return next, events, nil
	case action.PlaceChip:
		next, events := PlaceChip(r, actorID, a.X, a.Y)
		return next, events, nil
	case action.EndRound:
		next, events := EndRound(r)
		return next, events, nil
	case action.NextRound:
		next, events := NextRound(r)
		return next, events, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, a.Type)
	}
}

// Join seats a new player. The first player to join owns the room.
func Join(r *room.Room, playerID, name string) (*room.Room, []Event) {
	next := r.Clone()
	next.Players = append(next.Players, room.Player{
		ID:      playerID,
		Name:    strings.TrimSpace(name),
		Answers: []room.Answer{},
		Guesses: []room.Coord{},
	})
	if next.OwnerID == "" {
		next.OwnerID = playerID
	}
	return next, []Event{{Type: EventPlayerJoined, PlayerID: playerID}}
}

// StartGame opens round 1 with players[0] as clue-giver.
// maxRounds of 0 falls back to the room rules.
func StartGame(r *room.Room, maxRounds int) (*room.Room, []Event) {
	next := r.Clone()

	if maxRounds <= 0 {
		maxRounds = next.Rules.DefaultMaxRounds
	}
	next.MaxRounds = max(maxRounds, 1)
	next.Round = 1
	next.Phase = room.PhaseClueGiving

	for i := range next.Players {
		p := &next.Players[i]
		p.ChipColor = chipColor(i)
		p.Score = 0
		resetRound(p)
	}
	next.Clues = []room.Clue{}
	next.CurrentClue = nil
	next.BoardState = room.NewBoardState()
	next.Grid = room.NewGrid(next.Rules.GridRows, next.Rules.GridCols)

	setClueGiver(next, 0)

	return next, []Event{{Type: EventGameStarted, PlayerID: next.ClueGiverID, Round: next.Round}}
}

// SubmitClue records the giver's clue and opens guessing.
// A non-nil target becomes the round's active card, against which chips are scored.
func SubmitClue(r *room.Room, giverID, clue string, target *room.Coord) (*room.Room, []Event) {
	next := r.Clone()

	c := room.Clue{Clue: strings.TrimSpace(clue), Giver: giverID}
	next.Clues = append(next.Clues, c)
	next.CurrentClue = &c

	if target != nil {
		t := *target
		next.BoardState.ActiveCard = &t
		next.BoardState.SelectedCards = append(next.BoardState.SelectedCards, t)
	}
	next.Phase = room.PhaseGuessing
	next.TurnIndex = nextGuesser(next, next.PlayerIndex(giverID))

	return next, []Event{
		{Type: EventClueSubmitted, PlayerID: giverID, Round: next.Round},
		{Type: EventTurnAdvanced, PlayerID: next.TurnPlayerID(), Round: next.Round},
	}
}

// PlaceChip puts the actor's chip on (x, y) and passes the turn to the next seat.
// The phase stays GUESSING until someone ends the round.
func PlaceChip(r *room.Room, playerID string, x, y int) (*room.Room, []Event) {
	next := r.Clone()
	next.Grid[x][y] = playerID

	cell := room.Coord{X: x, Y: y}
	placed := Event{Type: EventChipPlaced, PlayerID: playerID, Round: next.Round, Cell: &cell}

	if p := next.Player(playerID); p != nil {
		p.Guesses = append(p.Guesses, cell)
		if target := next.BoardState.ActiveCard; target != nil {
			points := Points(cell, *target)
			p.Answers = append(p.Answers, room.Answer{X: x, Y: y, Points: points})
			placed.Points = points
		}
	}
	next.TurnIndex = advanceTurn(next)

	return next, []Event{
		placed,
		{Type: EventTurnAdvanced, PlayerID: next.TurnPlayerID(), Round: next.Round},
	}
}

// EndRound scores the round and closes it. The game is over once the
// current round reaches maxRounds; that check happens before any increment.
func EndRound(r *room.Room) (*room.Room, []Event) {
	next := r.Clone()

	for i := range next.Players {
		p := &next.Players[i]
		sum := 0
		for _, a := range p.Answers {
			sum += a.Points
		}
		p.CurrentRoundScore = sum
		p.Score += sum
		p.IsClueGiver = false
	}

	if card := next.BoardState.ActiveCard; card != nil {
		next.BoardState.RevealedCards = append(next.BoardState.RevealedCards, *card)
	}
	next.LastClueGiverID = next.ClueGiverID
	next.ClueGiverID = ""

	events := []Event{{Type: EventRoundEnded, PlayerID: next.LastClueGiverID, Round: next.Round}}
	if next.Round >= next.MaxRounds {
		next.Phase = room.PhaseGameOver
		events = append(events, Event{Type: EventGameOver, Round: next.Round})
	} else {
		next.Phase = room.PhaseRoundEnd
	}
	return next, events
}

// NextRound opens the following round. The steps run in a fixed order and
// only the final room is ever returned. Grid occupancy carries over.
func NextRound(r *room.Room) (*room.Room, []Event) {
	next := r.Clone()

	// 1. round number
	next.Round++

	// 2. per-round player data
	for i := range next.Players {
		resetRound(&next.Players[i])
	}
	next.CurrentClue = nil

	// 3. rotate the clue-giver; a missing previous giver restarts at seat 0
	seat := 0
	if last := next.PlayerIndex(next.LastClueGiverID); last >= 0 {
		seat = (last + 1) % len(next.Players)
	}
	setClueGiver(next, seat)

	// 4. board and phase
	next.BoardState = room.NewBoardState()
	next.Phase = room.PhaseClueGiving

	return next, []Event{{Type: EventRoundStarted, PlayerID: next.ClueGiverID, Round: next.Round}}
}

func resetRound(p *room.Player) {
	p.Answers = []room.Answer{}
	p.Guesses = []room.Coord{}
	p.CurrentRoundScore = 0
}

func setClueGiver(r *room.Room, seat int) {
	for i := range r.Players {
		r.Players[i].IsClueGiver = i == seat
	}
	r.ClueGiverID = r.Players[seat].ID
	r.TurnIndex = nextGuesser(r, seat)
}

// advanceTurn moves the turn round-robin by seat: (turnIndex + 1) % len(players).
// With Rules.SkipClueGiver the clue-giver's seat is passed over.
func advanceTurn(r *room.Room) int {
	if r.Rules.SkipClueGiver {
		return nextGuesser(r, r.TurnIndex)
	}
	return (r.TurnIndex + 1) % len(r.Players)
}

// nextGuesser returns the first seat after from that is not the clue-giver.
func nextGuesser(r *room.Room, from int) int {
	n := len(r.Players)
	if n == 0 {
		return 0
	}
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if r.Players[i].ID != r.ClueGiverID {
			return i
		}
	}
	return ((from+1)%n + n) % n
}

func chipColor(seat int) string {
	if seat < len(room.ChipColors) {
		return room.ChipColors[seat]
	}
	return fmt.Sprintf("color-%d", seat+1)
}
