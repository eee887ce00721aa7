package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/protocol"
)

const (
	monitorInterval = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	// connLimiterIdle is how long an IP's bucket is kept after its last connection.
	connLimiterIdle = 10 * time.Minute
)

// monitorStats logs load figures and prunes idle limiter state until ctx is done.
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		pruned := s.connLimiter.Prune(connLimiterIdle)

		rooms := -1
		listCtx, cancel := context.WithTimeout(ctx, s.config.Game.StoreTimeout())
		if ids, err := s.roomIDs(listCtx); err == nil {
			rooms = len(ids)
		} else {
			log.Warn().Err(err).Msg("room count unavailable")
		}
		cancel()

		log.Info().
			Int("online", s.GetOnlineCount()).
			Int("rooms", rooms).
			Int("goroutines", runtime.NumGoroutine()).
			Int("active_conns", len(s.semaphore)).
			Int("max_conns", s.maxConnections).
			Float64("alloc_mb", float64(m.Alloc)/1024/1024).
			Int("pruned_ips", pruned).
			Msg("stats")
	}
}

// EnterMaintenanceMode refuses new connections and joins; seated players keep playing.
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.Broadcast(protocol.NewErrorMessage(apperrors.ErrMaintenance))
	log.Info().Msg("maintenance mode: new connections and joins refused")
}

// IsMaintenanceMode reports whether the server is draining.
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// Shutdown stops the listener, closes every connection and the Redis client.
// Rooms stay in the store.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.EnterMaintenanceMode()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			err = shutdownErr
		}
	}

	// hijacked WebSocket connections are not tracked by http.Server
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()
	for _, c := range clients {
		c.Close()
	}

	if s.redis != nil {
		if closeErr := s.redis.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	log.Info().Msg("server stopped")
	return err
}
