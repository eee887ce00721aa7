package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/action"
	"github.com/palemoky/cluegrid/internal/game/engine"
	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/server/session"
	"github.com/palemoky/cluegrid/internal/server/storage"
	"github.com/palemoky/cluegrid/internal/testutil"
)

type fixture struct {
	h        *Handler
	server   *testutil.SimpleServer
	sessions *session.SessionManager
	store    *storage.MemoryStore
}

func newFixture(t *testing.T, lb LeaderboardReader) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	f := &fixture{
		server:   testutil.NewSimpleServer(),
		sessions: session.NewSessionManager(),
		store:    store,
	}
	f.h = NewHandler(HandlerDeps{
		Server:      f.server,
		Controller:  session.NewController(store, session.Options{}),
		Sessions:    f.sessions,
		Leaderboard: lb,
	})
	return f
}

func (f *fixture) connect(id string) *testutil.SimpleClient {
	c := &testutil.SimpleClient{ID: id}
	f.server.RegisterClient(id, c)
	f.sessions.CreateSession(id)
	return c
}

func msg(t *testing.T, typ protocol.MessageType, payload any) *protocol.Message {
	t.Helper()
	m, err := protocol.NewMessage(typ, payload)
	require.NoError(t, err)
	return m
}

func lastError(t *testing.T, c *testutil.SimpleClient) protocol.ErrorPayload {
	t.Helper()
	last := c.Last()
	require.NotNil(t, last)
	require.Equal(t, protocol.MsgError, last.Type)
	p, err := protocol.ParsePayload[protocol.ErrorPayload](last)
	require.NoError(t, err)
	return *p
}

func lastRoomState(t *testing.T, c *testutil.SimpleClient) protocol.RoomStatePayload {
	t.Helper()
	last := c.Last()
	require.NotNil(t, last)
	require.Equal(t, protocol.MsgRoomState, last.Type, "got %s", last.Payload)
	p, err := protocol.ParsePayload[protocol.RoomStatePayload](last)
	require.NoError(t, err)
	return *p
}

func ptr(v int) *int { return &v }

func TestHandler_JoinStartAndPlay(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	alice, bob := f.connect("p1"), f.connect("p2")

	f.h.Handle(alice, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))
	assert.Equal(t, "ROOM1", alice.GetRoom())
	state := lastRoomState(t, alice)
	assert.Equal(t, "p1", state.Room.OwnerID)
	require.Len(t, state.Events, 1)
	assert.Equal(t, engine.EventPlayerJoined, state.Events[0].Type)

	f.h.Handle(bob, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Bob"}))
	assert.Len(t, lastRoomState(t, alice).Room.Players, 2, "members receive the broadcast")

	sess, ok := f.sessions.GetSession("p2")
	require.True(t, ok)
	assert.Equal(t, "ROOM1", sess.RoomID)

	f.h.Handle(alice, msg(t, protocol.MsgStartGame, protocol.ActionPayload{MaxRounds: 1}))
	assert.Equal(t, room.PhaseClueGiving, lastRoomState(t, bob).Room.Phase)

	f.h.Handle(alice, msg(t, protocol.MsgSubmitClue, protocol.ActionPayload{Clue: "ocean", Target: &room.Coord{X: 4, Y: 4}}))
	f.h.Handle(bob, msg(t, protocol.MsgPlaceChip, protocol.ActionPayload{X: ptr(4), Y: ptr(5)}))
	assert.Equal(t, "p2", lastRoomState(t, alice).Room.Grid[4][5])

	f.h.Handle(alice, msg(t, protocol.MsgEndRound, nil))
	state = lastRoomState(t, bob)
	assert.Equal(t, room.PhaseGameOver, state.Room.Phase)
	assert.Equal(t, 2, state.Room.Players[1].Score)
}

func TestHandler_RejectionsGoToSenderOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	alice, bob := f.connect("p1"), f.connect("p2")
	f.h.Handle(alice, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))
	f.h.Handle(bob, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Bob"}))
	alice.Reset()

	f.h.Handle(bob, msg(t, protocol.MsgStartGame, nil))
	assert.Equal(t, apperrors.ReasonForbidden, lastError(t, bob).Code)
	assert.Empty(t, alice.Messages)
}

func TestHandler_RequestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		msg    *protocol.Message
		reason apperrors.Reason
	}{
		{"action before join", &protocol.Message{Type: protocol.MsgStartGame}, apperrors.ReasonNotInRoom},
		{"join without room", &protocol.Message{Type: protocol.MsgJoinRoom, Payload: json.RawMessage(`{"name":"A"}`)}, apperrors.ReasonInvalidPayload},
		{"malformed payload", &protocol.Message{Type: protocol.MsgJoinRoom, Payload: json.RawMessage(`{"roomId":7}`)}, apperrors.ReasonInvalidPayload},
		{"unknown type", &protocol.Message{Type: "shuffle"}, apperrors.ReasonUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)
			c := f.connect("p1")
			f.h.Handle(c, tt.msg)
			assert.Equal(t, tt.reason, lastError(t, c).Code)
		})
	}
}

func TestHandler_PlaceChipOnAnotherRoomIsNotPossible(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	alice := f.connect("p1")
	f.h.Handle(alice, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))

	// roomId on later actions is ignored
	f.h.Handle(alice, msg(t, protocol.MsgPlaceChip, protocol.ActionPayload{RoomID: "OTHER", X: ptr(0), Y: ptr(0)}))
	assert.Equal(t, apperrors.ReasonInvalidPhase, lastError(t, alice).Code)
}

func TestHandler_JoinDuringMaintenance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.server.Maintenance = true
	c := f.connect("p1")

	f.h.Handle(c, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))
	assert.Equal(t, apperrors.ReasonMaintenance, lastError(t, c).Code)
	assert.Equal(t, 0, f.store.Len())
}

func TestHandler_Ping(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	c := f.connect("p1")
	f.h.Handle(c, msg(t, protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))

	last := c.Last()
	require.Equal(t, protocol.MsgPong, last.Type)
	pong, err := protocol.ParsePayload[protocol.PongPayload](last)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pong.ClientTimestamp)
	assert.Positive(t, pong.ServerTimestamp)
}

func TestHandler_Reconnect(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	alice := f.connect("p1")
	f.h.Handle(alice, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))
	sess, _ := f.sessions.GetSession("p1")

	f.server.UnregisterClient("p1")
	f.h.HandleDisconnect(alice)

	fresh := f.connect("tmp-1")
	f.h.Handle(fresh, msg(t, protocol.MsgReconnect, protocol.ReconnectPayload{PlayerID: "p1", Token: sess.ReconnectToken}))

	last := fresh.Last()
	require.Equal(t, protocol.MsgReconnected, last.Type)
	reply, err := protocol.ParsePayload[protocol.ReconnectedPayload](last)
	require.NoError(t, err)
	assert.Equal(t, "p1", reply.PlayerID)
	assert.Equal(t, "ROOM1", reply.RoomID)
	require.NotNil(t, reply.Room)
	assert.True(t, reply.Room.HasPlayer("p1"))

	assert.Equal(t, "p1", fresh.GetID())
	assert.Equal(t, "ROOM1", fresh.GetRoom())
	assert.Same(t, fresh, f.server.GetClientByID("p1"))
	assert.Nil(t, f.server.GetClientByID("tmp-1"))
	_, ok := f.sessions.GetSession("tmp-1")
	assert.False(t, ok)
}

func TestHandler_ReconnectRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.connect("p1") // still online
	sess, _ := f.sessions.GetSession("p1")

	fresh := f.connect("tmp-1")
	f.h.Handle(fresh, msg(t, protocol.MsgReconnect, protocol.ReconnectPayload{PlayerID: "p1", Token: sess.ReconnectToken}))
	assert.Equal(t, apperrors.ReasonForbidden, lastError(t, fresh).Code)

	f.h.Handle(fresh, msg(t, protocol.MsgReconnect, protocol.ReconnectPayload{PlayerID: "p1"}))
	assert.Equal(t, apperrors.ReasonInvalidPayload, lastError(t, fresh).Code)
	assert.Equal(t, "tmp-1", fresh.GetID())
}

func TestHandler_GetLeaderboard(t *testing.T) {
	t.Parallel()

	lb := new(testutil.MockLeaderboard)
	entries := []storage.LeaderboardEntry{{Rank: 1, PlayerName: "alice", Points: 9, Wins: 2, Games: 3}}
	lb.On("GetLeaderboard", mock.Anything, storage.PeriodWeekly, 5).Return(entries, nil)
	lb.On("GetLeaderboard", mock.Anything, storage.PeriodTotal, defaultLeaderboardLimit).Return(nil, errors.New("redis down"))

	f := newFixture(t, lb)
	c := f.connect("p1")

	f.h.Handle(c, msg(t, protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Period: "weekly", Limit: 5}))
	last := c.Last()
	require.Equal(t, protocol.MsgLeaderboard, last.Type)
	board, err := protocol.ParsePayload[protocol.LeaderboardPayload](last)
	require.NoError(t, err)
	assert.Equal(t, storage.PeriodWeekly, board.Period)
	assert.Equal(t, entries, board.Entries)

	f.h.Handle(c, msg(t, protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 500}))
	assert.Equal(t, apperrors.ReasonStoreUnavailable, lastError(t, c).Code)
	lb.AssertExpectations(t)
}

func TestHandler_GetLeaderboardWithoutRedis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	c := f.connect("p1")
	f.h.Handle(c, msg(t, protocol.MsgGetLeaderboard, nil))
	assert.Equal(t, apperrors.ReasonStoreUnavailable, lastError(t, c).Code)
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultLeaderboardLimit, ClampLimit(0))
	assert.Equal(t, defaultLeaderboardLimit, ClampLimit(-3))
	assert.Equal(t, defaultLeaderboardLimit, ClampLimit(maxLeaderboardLimit+1))
	assert.Equal(t, 25, ClampLimit(25))
}

func ofType(typ protocol.MessageType) any {
	return mock.MatchedBy(func(m *protocol.Message) bool { return m.Type == typ })
}

func TestHandler_AppliedActionBroadcastsToRoom(t *testing.T) {
	t.Parallel()

	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(false)
	srv.On("BroadcastToRoom", "ROOM1", ofType(protocol.MsgRoomState)).Once()

	sessions := session.NewSessionManager()
	sessions.CreateSession("p1")
	h := NewHandler(HandlerDeps{
		Server:     srv,
		Controller: session.NewController(storage.NewMemoryStore(), session.Options{}),
		Sessions:   sessions,
	})

	client := new(testutil.MockClient)
	client.On("GetID").Return("p1")
	client.On("SetRoom", "ROOM1").Once()
	client.On("SendMessage", ofType(protocol.MsgError)).Once()

	h.Handle(client, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))
	sess, ok := sessions.GetSession("p1")
	require.True(t, ok)
	assert.Equal(t, "ROOM1", sess.RoomID)

	// a second join is rejected to the sender and never broadcast
	h.Handle(client, msg(t, protocol.MsgJoinRoom, protocol.ActionPayload{RoomID: "ROOM1", Name: "Alice"}))

	srv.AssertExpectations(t)
	srv.AssertNumberOfCalls(t, "BroadcastToRoom", 1)
	client.AssertExpectations(t)
}

func TestHandler_ReconnectMovesRegistration(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	controller := session.NewController(store, session.Options{})
	_, err := controller.Dispatch(context.Background(), "ROOM1", "p1", action.Join("Alice"))
	require.NoError(t, err)

	sessions := session.NewSessionManager()
	sess := sessions.CreateSession("p1")
	sessions.SetRoom("p1", "ROOM1")
	sessions.SetOffline("p1")
	sessions.CreateSession("tmp-1")

	client := new(testutil.MockClient)
	client.On("GetID").Return("tmp-1").Once()
	client.On("GetID").Return("p1")
	client.On("SetID", "p1").Once()
	client.On("SetRoom", "ROOM1").Once()
	client.On("SendMessage", ofType(protocol.MsgReconnected)).Once()

	srv := new(testutil.MockServer)
	srv.On("UnregisterClient", "tmp-1").Once()
	srv.On("RegisterClient", "p1", client).Once()

	h := NewHandler(HandlerDeps{Server: srv, Controller: controller, Sessions: sessions})
	h.Handle(client, msg(t, protocol.MsgReconnect, protocol.ReconnectPayload{PlayerID: "p1", Token: sess.ReconnectToken}))

	srv.AssertExpectations(t)
	client.AssertExpectations(t)
	srv.AssertNotCalled(t, "BroadcastToRoom", mock.Anything, mock.Anything)
	_, ok := sessions.GetSession("tmp-1")
	assert.False(t, ok)
	assert.True(t, sessions.IsOnline("p1"))
}
