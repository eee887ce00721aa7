// Package server exposes rooms over WebSocket and a small HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/config"
	"github.com/palemoky/cluegrid/internal/server/handler"
	"github.com/palemoky/cluegrid/internal/server/session"
	"github.com/palemoky/cluegrid/internal/server/storage"
)

const redisPingTimeout = 5 * time.Second

// Server owns the connections, the room controller and the HTTP listener.
type Server struct {
	config         *config.Config
	redis          *redis.Client // nil with the memory driver
	store          storage.Store
	leaderboard    *storage.LeaderboardManager // nil with the memory driver
	controller     *session.Controller
	sessionManager *session.SessionManager
	handler        *handler.Handler
	router         chi.Router
	upgrader       websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	connLimiter   *ConnLimiter
	originChecker *OriginChecker
	ipFilter      *IPFilter

	maxConnections int
	semaphore      chan struct{}

	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer *http.Server
}

// NewServer connects the configured store and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		return newServer(cfg, nil), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}
	return newServer(cfg, rdb), nil
}

// newServer wires everything on rdb, or on the memory store when rdb is nil.
func newServer(cfg *config.Config, rdb *redis.Client) *Server {
	s := &Server{
		config:         cfg,
		redis:          rdb,
		sessionManager: session.NewSessionManager(),
		clients:        make(map[string]*Client),
		connLimiter:    NewConnLimiter(cfg.Security.RateLimit.MaxPerMinute),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		ipFilter:       NewIPFilter(cfg.Security.BlockedIPs),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	opts := session.Options{
		StoreTimeout: cfg.Game.StoreTimeout(),
		Rules:        cfg.Game.Rules(),
	}
	deps := handler.HandlerDeps{Server: s, Sessions: s.sessionManager}

	if rdb != nil {
		s.store = storage.NewRedisStore(rdb, cfg.Storage.RoomTTL())
		s.leaderboard = storage.NewLeaderboardManager(rdb)
		opts.Recorder = s.leaderboard
		deps.Leaderboard = s.leaderboard
	} else {
		s.store = storage.NewMemoryStore()
	}

	s.controller = session.NewController(s.store, opts)
	deps.Controller = s.controller
	s.handler = handler.NewHandler(deps)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}
	s.router = s.routes()

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Int("max_connections", cfg.Server.MaxConnections).
		Int("conn_per_minute", cfg.Security.RateLimit.MaxPerMinute).
		Float64("msg_per_second", cfg.Security.MessageLimit.PerSecond).
		Msg("server configured")
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/leaderboard", s.handleGetLeaderboard)
	r.Get("/leaderboard/players/{name}", s.handleGetPlayerStanding)
	r.Get("/rooms", s.handleListRooms)
	r.Route("/rooms/{roomID}", func(r chi.Router) {
		r.Get("/", s.handleGetRoom)
		r.Post("/actions", s.handlePostAction)
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is done, then drains and shuts down.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeoutDuration(),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats(ctx)
	go s.sessionManager.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Int("cpus", runtime.NumCPU()).Msg("listening on ws://" + addr + "/ws")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Shutdown(shutdownTimeout)
	}
}
