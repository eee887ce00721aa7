package apperrors

import "errors"

// Reason is a stable rejection code shared by the game rules and every transport.
type Reason string

// Game-rule rejections
const (
	ReasonGameAlreadyStarted   Reason = "GAME_ALREADY_STARTED"
	ReasonForbidden            Reason = "FORBIDDEN"
	ReasonNotEnoughPlayers     Reason = "NOT_ENOUGH_PLAYERS"
	ReasonInvalidPhase         Reason = "INVALID_PHASE"
	ReasonPermissionDenied     Reason = "PERMISSION_DENIED"
	ReasonNotYourTurn          Reason = "NOT_YOUR_TURN"
	ReasonOutOfBounds          Reason = "OUT_OF_BOUNDS"
	ReasonCellOccupied         Reason = "CELL_OCCUPIED"
	ReasonGameAlreadyOver      Reason = "GAME_ALREADY_OVER"
	ReasonClueAlreadySubmitted Reason = "CLUE_ALREADY_SUBMITTED"
	ReasonRoomFull             Reason = "ROOM_FULL"
	ReasonAlreadyJoined        Reason = "ALREADY_JOINED"
	ReasonNotInRoom            Reason = "NOT_IN_ROOM"
)

// Request and infrastructure rejections
const (
	ReasonRoomNotFound     Reason = "ROOM_NOT_FOUND"
	ReasonStoreUnavailable Reason = "STORE_UNAVAILABLE"
	ReasonInvalidPayload   Reason = "INVALID_PAYLOAD"
	ReasonUnknownAction    Reason = "UNKNOWN_ACTION"
	ReasonRateLimited      Reason = "RATE_LIMITED"
	ReasonMaintenance      Reason = "SERVER_MAINTENANCE"
	ReasonInternal         Reason = "INTERNAL"
)

// GameError is a rejection shared by the rule validator and the session controller.
type GameError struct {
	Reason  Reason
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is matches any GameError carrying the same reason, so callers can compare
// against the sentinels below even when the message was customised.
func (e *GameError) Is(target error) bool {
	var other *GameError
	if !errors.As(target, &other) {
		return false
	}
	return e.Reason == other.Reason
}

// New builds a GameError with a custom message.
func New(reason Reason, message string) *GameError {
	return &GameError{Reason: reason, Message: message}
}

// Predefined errors
var (
	ErrGameAlreadyStarted   = &GameError{Reason: ReasonGameAlreadyStarted, Message: "game already started"}
	ErrForbidden            = &GameError{Reason: ReasonForbidden, Message: "only the room owner can do that"}
	ErrNotEnoughPlayers     = &GameError{Reason: ReasonNotEnoughPlayers, Message: "not enough players"}
	ErrInvalidPhase         = &GameError{Reason: ReasonInvalidPhase, Message: "action not allowed in the current phase"}
	ErrPermissionDenied     = &GameError{Reason: ReasonPermissionDenied, Message: "only the clue-giver can do that"}
	ErrNotYourTurn          = &GameError{Reason: ReasonNotYourTurn, Message: "not your turn"}
	ErrOutOfBounds          = &GameError{Reason: ReasonOutOfBounds, Message: "cell is outside the grid"}
	ErrCellOccupied         = &GameError{Reason: ReasonCellOccupied, Message: "cell is already occupied"}
	ErrGameAlreadyOver      = &GameError{Reason: ReasonGameAlreadyOver, Message: "game is already over"}
	ErrClueAlreadySubmitted = &GameError{Reason: ReasonClueAlreadySubmitted, Message: "a clue was already given this round"}
	ErrRoomFull             = &GameError{Reason: ReasonRoomFull, Message: "room is full"}
	ErrAlreadyJoined        = &GameError{Reason: ReasonAlreadyJoined, Message: "player already joined"}
	ErrNotInRoom            = &GameError{Reason: ReasonNotInRoom, Message: "player is not in this room"}
	ErrRoomNotFound         = &GameError{Reason: ReasonRoomNotFound, Message: "room not found"}
	ErrStoreUnavailable     = &GameError{Reason: ReasonStoreUnavailable, Message: "room store unavailable"}
	ErrInvalidPayload       = &GameError{Reason: ReasonInvalidPayload, Message: "invalid payload"}
	ErrUnknownAction        = &GameError{Reason: ReasonUnknownAction, Message: "unknown action"}
	ErrRateLimited          = &GameError{Reason: ReasonRateLimited, Message: "too many messages"}
	ErrMaintenance          = &GameError{Reason: ReasonMaintenance, Message: "server is under maintenance"}
	ErrInternal             = &GameError{Reason: ReasonInternal, Message: "internal error"}
)

// ReasonOf extracts the reason code from err, if it wraps a GameError.
func ReasonOf(err error) (Reason, bool) {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Reason, true
	}
	return "", false
}
