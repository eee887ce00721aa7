// Package session applies player actions to stored rooms, one action at a time per room.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/game/engine"
	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/game/rule"
	"github.com/palemoky/cluegrid/internal/server/storage"
)

// DefaultStoreTimeout bounds lock, load and save when Options leaves it unset.
const DefaultStoreTimeout = 2 * time.Second

// Status tags an Outcome.
type Status string

const (
	StatusApplied          Status = "APPLIED"
	StatusRejected         Status = "REJECTED"
	StatusStoreUnavailable Status = "STORE_UNAVAILABLE"
)

// Outcome is the result of one Dispatch.
//
// Applied carries the new room and its events. Rejected carries the reason and
// the unchanged stored room (nil when there is none). StoreUnavailable carries nothing.
type Outcome struct {
	Status   Status           `json:"status"`
	PlayerID string           `json:"playerId,omitempty"`
	Room     *room.Room       `json:"room,omitempty"`
	Events   []engine.Event   `json:"events,omitempty"`
	Reason   apperrors.Reason `json:"reason,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// Applied reports whether the action changed the room.
func (o Outcome) Applied() bool { return o.Status == StatusApplied }

// Err returns the rejection as a *apperrors.GameError, or nil when applied.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusApplied:
		return nil
	case StatusStoreUnavailable:
		return apperrors.ErrStoreUnavailable
	default:
		return apperrors.New(o.Reason, o.Message)
	}
}

// ResultRecorder receives the final standings of every finished game.
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, roomID string, players []room.Player) error
}

// Options configures a Controller. Zero values pick defaults.
type Options struct {
	StoreTimeout time.Duration
	Rules        room.Rules
	NewPlayerID  func() string
	Recorder     ResultRecorder
	Now          func() time.Time
}

// Controller runs lock → load → validate → transition → check → save for each action.
type Controller struct {
	store        storage.Store
	locks        *roomLocks
	storeTimeout time.Duration
	rules        room.Rules
	newPlayerID  func() string
	recorder     ResultRecorder
	now          func() time.Time
}

// NewController creates a controller on store.
func NewController(store storage.Store, opts Options) *Controller {
	c := &Controller{
		store:        store,
		locks:        newRoomLocks(),
		storeTimeout: opts.StoreTimeout,
		rules:        opts.Rules,
		newPlayerID:  opts.NewPlayerID,
		recorder:     opts.Recorder,
		now:          opts.Now,
	}
	if c.storeTimeout <= 0 {
		c.storeTimeout = DefaultStoreTimeout
	}
	if c.rules == (room.Rules{}) {
		c.rules = room.DefaultRules()
	}
	if c.newPlayerID == nil {
		c.newPlayerID = uuid.NewString
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Rules returns the rules new rooms are created with.
func (c *Controller) Rules() room.Rules { return c.rules }

// Dispatch applies at most one action to roomID on behalf of actorID.
//
// A join-room on an unknown room creates it; a join-room without an actor id
// is given a fresh one, reported in Outcome.PlayerID. The error is non-nil only
// when the transition would break a room invariant; nothing is saved then.
func (c *Controller) Dispatch(ctx context.Context, roomID, actorID string, a action.Action) (Outcome, error) {
	if !a.Type.Valid() {
		return rejected(apperrors.ErrUnknownAction, actorID, nil), nil
	}
	if roomID == "" {
		return rejected(apperrors.New(apperrors.ReasonInvalidPayload, "room id is required"), actorID, nil), nil
	}
	if actorID == "" && a.Type == action.JoinRoom {
		actorID = c.newPlayerID()
	}

	logger := log.With().Str("room", roomID).Str("player", actorID).Str("action", string(a.Type)).Logger()

	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	unlock, err := c.locks.acquire(ctx, roomID)
	if err != nil {
		logger.Warn().Err(err).Msg("room lock not acquired")
		return storeUnavailable(actorID), nil
	}
	defer unlock()

	current, err := c.store.Load(ctx, roomID)
	stored := current
	switch {
	case errors.Is(err, storage.ErrRoomNotFound):
		if a.Type != action.JoinRoom {
			return rejected(apperrors.ErrRoomNotFound, actorID, nil), nil
		}
		current = c.newRoom(roomID)
	case err != nil:
		logger.Warn().Err(err).Msg("room load failed")
		return storeUnavailable(actorID), nil
	}

	if err := rule.Validate(current, actorID, a); err != nil {
		logger.Debug().Err(err).Msg("action rejected")
		return rejected(err, actorID, stored), nil
	}

	next, events, err := engine.Transition(current, actorID, a)
	if err != nil {
		return rejected(err, actorID, stored), nil
	}
	next.Version = current.Version + 1
	next.UpdatedAt = c.now()

	if err := next.CheckInvariants(); err != nil {
		logger.Error().Err(err).Msg("transition aborted")
		return Outcome{}, fmt.Errorf("room %s: %s: %w", roomID, a.Type, err)
	}
	if err := room.CheckTransition(current, next); err != nil {
		logger.Error().Err(err).Msg("transition aborted")
		return Outcome{}, fmt.Errorf("room %s: %s: %w", roomID, a.Type, err)
	}

	if err := c.store.Save(ctx, roomID, next); err != nil {
		logger.Warn().Err(err).Msg("room save failed")
		return storeUnavailable(actorID), nil
	}

	if next.Phase == room.PhaseGameOver && current.Phase != room.PhaseGameOver {
		c.recordResult(ctx, next)
	}

	logger.Debug().Int("version", next.Version).Str("phase", next.Phase.String()).Msg("action applied")
	return Outcome{Status: StatusApplied, PlayerID: actorID, Room: next, Events: events}, nil
}

// Snapshot loads a room without changing it.
func (c *Controller) Snapshot(ctx context.Context, roomID string) (*room.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	r, err := c.store.Load(ctx, roomID)
	switch {
	case errors.Is(err, storage.ErrRoomNotFound):
		return nil, apperrors.ErrRoomNotFound
	case err != nil:
		log.Warn().Err(err).Str("room", roomID).Msg("room load failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return r, nil
}

func (c *Controller) newRoom(roomID string) *room.Room {
	r := room.New(roomID, c.rules)
	r.CreatedAt = c.now()
	r.UpdatedAt = r.CreatedAt
	return r
}

func (c *Controller) recordResult(ctx context.Context, r *room.Room) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
	defer cancel()

	if err := c.recorder.RecordGameResult(ctx, r.ID, r.Players); err != nil {
		log.Warn().Err(err).Str("room", r.ID).Msg("game result not recorded")
	}
}

func rejected(err error, actorID string, r *room.Room) Outcome {
	o := Outcome{Status: StatusRejected, PlayerID: actorID, Room: r}

	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		o.Reason = gameErr.Reason
		o.Message = gameErr.Message
	} else {
		o.Reason = apperrors.ReasonInternal
		o.Message = err.Error()
	}
	return o
}

func storeUnavailable(actorID string) Outcome {
	return Outcome{
		Status:   StatusStoreUnavailable,
		PlayerID: actorID,
		Reason:   apperrors.ReasonStoreUnavailable,
		Message:  apperrors.ErrStoreUnavailable.Message,
	}
}
