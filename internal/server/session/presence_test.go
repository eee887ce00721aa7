package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSessionManager() (*SessionManager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sm := NewSessionManager()
	sm.now = clock.now
	return sm, clock
}

func TestSessionManager_CRUD(t *testing.T) {
	t.Parallel()
	sm, _ := newTestSessionManager()

	s := sm.CreateSession("p1")
	assert.Equal(t, "p1", s.PlayerID)
	assert.Len(t, s.ReconnectToken, 64)
	assert.True(t, s.IsOnline)

	sm.SetRoom("p1", "ROOM1")
	got, ok := sm.GetSession("p1")
	require.True(t, ok)
	assert.Equal(t, "ROOM1", got.RoomID)

	sm.DeleteSession("p1")
	_, ok = sm.GetSession("p1")
	assert.False(t, ok)
	_, ok = sm.Resume(s.ReconnectToken, "p1")
	assert.False(t, ok)
}

func TestSessionManager_Resume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(sm *SessionManager, clock *fakeClock) (token, playerID string)
		want  bool
	}{
		{
			name: "offline within timeout",
			setup: func(sm *SessionManager, clock *fakeClock) (string, string) {
				s := sm.CreateSession("p1")
				sm.SetOffline("p1")
				clock.advance(time.Minute)
				return s.ReconnectToken, "p1"
			},
			want: true,
		},
		{
			name: "still online",
			setup: func(sm *SessionManager, _ *fakeClock) (string, string) {
				s := sm.CreateSession("p1")
				return s.ReconnectToken, "p1"
			},
		},
		{
			name: "offline too long",
			setup: func(sm *SessionManager, clock *fakeClock) (string, string) {
				s := sm.CreateSession("p1")
				sm.SetOffline("p1")
				clock.advance(reconnectTimeout + time.Second)
				return s.ReconnectToken, "p1"
			},
		},
		{
			name: "token of another player",
			setup: func(sm *SessionManager, _ *fakeClock) (string, string) {
				s := sm.CreateSession("p1")
				sm.CreateSession("p2")
				sm.SetOffline("p2")
				return s.ReconnectToken, "p2"
			},
		},
		{
			name: "unknown token",
			setup: func(sm *SessionManager, _ *fakeClock) (string, string) {
				sm.CreateSession("p1")
				sm.SetOffline("p1")
				return "bogus", "p1"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sm, clock := newTestSessionManager()
			token, playerID := tt.setup(sm, clock)

			_, ok := sm.Resume(token, playerID)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.True(t, sm.IsOnline(playerID))
			}
		})
	}
}

func TestSessionManager_Cleanup(t *testing.T) {
	t.Parallel()
	sm, clock := newTestSessionManager()

	sm.CreateSession("online")
	sm.CreateSession("recent")
	sm.CreateSession("stale")
	sm.SetOffline("stale")
	clock.advance(sessionExpireTime + time.Second)
	sm.SetOffline("recent")

	sm.cleanup()

	_, ok := sm.GetSession("online")
	assert.True(t, ok)
	_, ok = sm.GetSession("recent")
	assert.True(t, ok)
	_, ok = sm.GetSession("stale")
	assert.False(t, ok)
}

func TestSessionManager_RunStopsWithContext(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sm.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
