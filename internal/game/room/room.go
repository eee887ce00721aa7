package room

import (
	"slices"
	"time"
)

// Coord addresses a grid cell. X is the row and Y the column.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Answer is a scored guess.
type Answer struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Points int `json:"points"`
}

// Clue is a submitted clue and the player who gave it.
type Clue struct {
	Clue  string `json:"clue"`
	Giver string `json:"giver"`
}

// BoardState is per-round scratch state, reset by next-round.
type BoardState struct {
	SelectedCards []Coord `json:"selectedCards"`
	RevealedCards []Coord `json:"revealedCards"`
	ActiveCard    *Coord  `json:"activeCard"`
	IsReady       bool    `json:"isReady"`
}

// Player is one seat in a room.
type Player struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	ChipColor         string   `json:"chipColor"` // empty until the game starts
	Score             int      `json:"score"`
	CurrentRoundScore int      `json:"currentRoundScore"`
	Answers           []Answer `json:"answers"`
	Guesses           []Coord  `json:"guesses"`
	IsClueGiver       bool     `json:"isClueGiver"`
}

// Rules are captured when the room is created and never change afterwards.
type Rules struct {
	MinPlayers       int  `json:"minPlayers"`
	MaxPlayers       int  `json:"maxPlayers"`
	GridRows         int  `json:"gridRows"`
	GridCols         int  `json:"gridCols"`
	DefaultMaxRounds int  `json:"defaultMaxRounds"`
	AllowForfeit     bool `json:"allowForfeit"`  // end-round allowed while still in CLUE_GIVING
	SkipClueGiver    bool `json:"skipClueGiver"` // turn order passes over the clue-giver
}

// DefaultRules returns the rules used when configuration leaves them unset.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:       2,
		MaxPlayers:       len(ChipColors),
		GridRows:         10,
		GridCols:         10,
		DefaultMaxRounds: 5,
		AllowForfeit:     false,
		SkipClueGiver:    false,
	}
}

// ChipColors is the palette handed out in seat order at game start.
var ChipColors = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "teal"}

// Room is the full state of one game session.
type Room struct {
	ID              string     `json:"id"`
	Phase           Phase      `json:"phase"`
	OwnerID         string     `json:"ownerId"`
	Players         []Player   `json:"players"`
	Round           int        `json:"round"`
	MaxRounds       int        `json:"maxRounds"`
	ClueGiverID     string     `json:"clueGiverId"`
	LastClueGiverID string     `json:"lastClueGiverId"`
	CurrentClue     *Clue      `json:"currentClue"`
	Clues           []Clue     `json:"clues"`
	TurnIndex       int        `json:"turnIndex"`
	BoardState      BoardState `json:"boardState"`
	Grid            Grid       `json:"grid"`
	Rules           Rules      `json:"rules"`
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// New creates an empty room in the lobby. It is the only constructor of Room.
func New(id string, rules Rules) *Room {
	now := time.Now()
	return &Room{
		ID:         id,
		Phase:      PhaseLobby,
		Players:    []Player{},
		Clues:      []Clue{},
		BoardState: NewBoardState(),
		Grid:       NewGrid(rules.GridRows, rules.GridCols),
		Rules:      rules,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewBoardState returns a ready, empty board.
func NewBoardState() BoardState {
	return BoardState{
		SelectedCards: []Coord{},
		RevealedCards: []Coord{},
		ActiveCard:    nil,
		IsReady:       true,
	}
}

// PlayerIndex returns the seat of the player, or -1.
func (r *Room) PlayerIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.ID == id })
}

// Player returns a pointer into the roster, or nil.
func (r *Room) Player(id string) *Player {
	if i := r.PlayerIndex(id); i >= 0 {
		return &r.Players[i]
	}
	return nil
}

// HasPlayer reports whether id is seated in the room.
func (r *Room) HasPlayer(id string) bool {
	return r.PlayerIndex(id) >= 0
}

// TurnPlayerID returns the id of the player expected to place a chip.
func (r *Room) TurnPlayerID() string {
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
		return ""
	}
	return r.Players[r.TurnIndex].ID
}

// Clone returns a deep copy; transitions never share slices with their input.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Answers = slices.Clone(p.Answers)
		p.Guesses = slices.Clone(p.Guesses)
		c.Players[i] = p
	}
	if r.CurrentClue != nil {
		clue := *r.CurrentClue
		c.CurrentClue = &clue
	}
	c.Clues = slices.Clone(r.Clues)
	c.BoardState = r.BoardState.clone()
	c.Grid = r.Grid.Clone()
	return &c
}

func (b BoardState) clone() BoardState {
	c := b
	c.SelectedCards = slices.Clone(b.SelectedCards)
	c.RevealedCards = slices.Clone(b.RevealedCards)
	if b.ActiveCard != nil {
		card := *b.ActiveCard
		c.ActiveCard = &card
	}
	return c
}
