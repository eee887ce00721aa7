package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// reconnectTimeout is how long a dropped connection may resume its seat.
	reconnectTimeout = 2 * time.Minute
	// sessionExpireTime is how long an offline session is kept at all.
	sessionExpireTime = 10 * time.Minute
)

// PlayerSession ties a player id to its room across WebSocket reconnects.
type PlayerSession struct {
	PlayerID       string
	RoomID         string
	ReconnectToken string
	DisconnectedAt time.Time
	IsOnline       bool
}

// SessionManager tracks connected players so a dropped client can take its seat back.
type SessionManager struct {
	sessions map[string]*PlayerSession // playerID -> session
	tokens   map[string]string         // token -> playerID
	mu       sync.RWMutex
	now      func() time.Time
}

// NewSessionManager creates an empty manager. Run its cleanup loop with Run.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*PlayerSession),
		tokens:   make(map[string]string),
		now:      time.Now,
	}
}

// CreateSession registers an online player and returns its session.
func (sm *SessionManager) CreateSession(playerID string) PlayerSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, old.ReconnectToken)
	}

	s := &PlayerSession{
		PlayerID:       playerID,
		ReconnectToken: generateToken(),
		IsOnline:       true,
	}
	sm.sessions[playerID] = s
	sm.tokens[s.ReconnectToken] = playerID
	return *s
}

// GetSession returns a copy of the session for playerID.
func (sm *SessionManager) GetSession(playerID string) (PlayerSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[playerID]
	if !ok {
		return PlayerSession{}, false
	}
	return *s, true
}

// Resume brings an offline session back online if token matches playerID
// and the player dropped less than reconnectTimeout ago.
func (sm *SessionManager) Resume(token, playerID string) (PlayerSession, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if stored, ok := sm.tokens[token]; !ok || stored != playerID {
		return PlayerSession{}, false
	}
	s, ok := sm.sessions[playerID]
	if !ok {
		return PlayerSession{}, false
	}
	if s.IsOnline {
		// the old connection is still attached
		return PlayerSession{}, false
	}
	if sm.now().Sub(s.DisconnectedAt) > reconnectTimeout {
		return PlayerSession{}, false
	}

	s.IsOnline = true
	s.DisconnectedAt = time.Time{}
	return *s, true
}

// SetOffline marks the player as disconnected.
func (sm *SessionManager) SetOffline(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[playerID]; ok {
		s.IsOnline = false
		s.DisconnectedAt = sm.now()
	}
}

// SetRoom records the room the player sits in.
func (sm *SessionManager) SetRoom(playerID, roomID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[playerID]; ok {
		s.RoomID = roomID
	}
}

// IsOnline reports whether the player has a live connection.
func (sm *SessionManager) IsOnline(playerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[playerID]
	return ok && s.IsOnline
}

// DeleteSession forgets the player.
func (sm *SessionManager) DeleteSession(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, s.ReconnectToken)
		delete(sm.sessions, playerID)
	}
}

// Run drops expired sessions every interval until ctx is done.
func (sm *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.cleanup()
		}
	}
}

func (sm *SessionManager) cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	for playerID, s := range sm.sessions {
		if !s.IsOnline && now.Sub(s.DisconnectedAt) > sessionExpireTime {
			delete(sm.tokens, s.ReconnectToken)
			delete(sm.sessions, playerID)
		}
	}
}

func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
