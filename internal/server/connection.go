package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/types"
)

// handleWebSocket upgrades the request after the admission checks pass.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	logger := log.With().Str("ip", clientIP).Logger()

	if s.IsMaintenanceMode() {
		logger.Info().Msg("connection refused: maintenance")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	select {
	case s.semaphore <- struct{}{}:
	default:
		logger.Warn().Int("max", s.maxConnections).Msg("connection refused: server full")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	release := func() { <-s.semaphore }

	if !s.ipFilter.IsAllowed(clientIP) {
		release()
		logger.Warn().Msg("connection refused: blocked ip")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !s.originChecker.Check(r) {
		release()
		logger.Warn().Str("origin", r.Header.Get("Origin")).Msg("connection refused: origin")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}
	if !s.connLimiter.Allow(clientIP) {
		release()
		logger.Warn().Msg("connection refused: rate limited")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	sess := s.sessionManager.CreateSession(client.GetID())
	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:       client.GetID(),
		ReconnectToken: sess.ReconnectToken,
	}))
	logger.Info().Str("player", client.GetID()).Msg("player connected")

	go func() {
		defer release()
		client.ReadPump()
	}()
	go client.WritePump()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.GetID()] = client
}

// unregisterClient removes client unless its id was already taken over by a reconnect.
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	id := client.GetID()
	if current, ok := s.clients[id]; ok && current == client {
		delete(s.clients, id)
		log.Info().Str("player", id).Msg("player disconnected")
	}
}

func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

func (s *Server) RegisterClient(id string, client types.ClientInterface) {
	c, ok := client.(*Client)
	if !ok {
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[id] = c
}

func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}

// GetOnlineCount returns the number of open connections.
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastToRoom sends msg to every connection seated in roomID.
func (s *Server) BroadcastToRoom(roomID string, msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		if c.GetRoom() == roomID {
			c.SendMessage(msg)
		}
	}
}

// Broadcast sends msg to every connection.
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.SendMessage(msg)
	}
}
