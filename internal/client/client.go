// Package client is a Go WebSocket client for the room server, used by bots and tests.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/game/room"
	"github.com/palemoky/cluegrid/internal/logger"
	"github.com/palemoky/cluegrid/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	heartbeatInterval    = 5 * time.Second
	maxReconnectAttempts = 5
	reconnectInterval    = 2 * time.Second
	maxReconnectBackoff  = 30 * time.Second

	bufferSize = 256
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrReceiveTimeout = errors.New("receive timeout")
	ErrNoSession      = errors.New("no reconnect token")
)

// Client holds one logical session that survives dropped connections.
type Client struct {
	ServerURL string

	// OnMessage sees every decoded frame, before it is queued for Receive.
	OnMessage func(*protocol.Message)
	// HeartbeatInterval is how often Connect's heartbeat pings; zero disables it.
	HeartbeatInterval time.Duration

	dialer            websocket.Dialer
	reconnectInterval time.Duration

	mu       sync.RWMutex
	conn     *connection
	closed   bool
	playerID string
	token    string
	roomID   string
	room     *room.Room

	// identity of the current connection while a resume is pending
	pendingID    string
	pendingToken string

	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	heartbeat    sync.Once
	latency      atomic.Int64
	reconnecting atomic.Bool
}

// connection is one physical WebSocket; stop closes when its read pump exits.
type connection struct {
	ws   *websocket.Conn
	stop chan struct{}
}

// NewClient creates a client for a ws:// URL.
func NewClient(serverURL string) *Client {
	c := &Client{
		ServerURL:         serverURL,
		HeartbeatInterval: heartbeatInterval,
		dialer:            websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		reconnectInterval: reconnectInterval,
		send:              make(chan []byte, bufferSize),
		receive:           make(chan *protocol.Message, bufferSize),
		done:              make(chan struct{}),
	}
	c.latency.Store(-1)
	return c
}

// Connect dials the server, starts the pumps and, on the first call, the heartbeat.
func (c *Client) Connect(ctx context.Context) error {
	ws, resp, err := c.dialer.DialContext(ctx, c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	c.attach(ws)
	if c.HeartbeatInterval > 0 {
		c.heartbeat.Do(func() { go c.runHeartbeat(c.HeartbeatInterval) })
	}
	return nil
}

func (c *Client) attach(ws *websocket.Conn) {
	conn := &connection{ws: ws, stop: make(chan struct{})}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readPump(conn)
	go c.writePump(conn)
}

func (c *Client) readPump(conn *connection) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		close(conn.stop)
		_ = conn.ws.Close()
		c.handleReadExit()
	}()

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("client read failed")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("client dropped malformed frame")
			continue
		}
		c.processMessage(msg)
	}
}

func (c *Client) handleReadExit() {
	c.mu.RLock()
	closed, token := c.closed, c.token
	c.mu.RUnlock()
	if closed {
		return
	}
	if token != "" && c.reconnecting.CompareAndSwap(false, true) {
		go c.tryReconnect()
		return
	}
	if !c.reconnecting.Load() {
		c.Close()
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	c.handleInternalMessage(msg)

	if c.OnMessage != nil {
		c.OnMessage(msg)
	}

	select {
	case c.receive <- msg:
	default:
		log.Warn().Str("type", string(msg.Type)).Msg("client receive queue full")
	}
}

func (c *Client) handleInternalMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		p, err := protocol.ParsePayload[protocol.ConnectedPayload](msg)
		if err != nil {
			return
		}
		c.mu.Lock()
		if c.reconnecting.Load() {
			// kept until the server confirms or refuses the resume
			c.pendingID, c.pendingToken = p.PlayerID, p.ReconnectToken
		} else {
			c.playerID, c.token = p.PlayerID, p.ReconnectToken
		}
		c.mu.Unlock()
	case protocol.MsgReconnected:
		if p, err := protocol.ParsePayload[protocol.ReconnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID, c.roomID = p.PlayerID, p.RoomID
			c.pendingID, c.pendingToken = "", ""
			if p.Room != nil {
				c.room = p.Room
			}
			c.mu.Unlock()
		}
		c.reconnecting.Store(false)
	case protocol.MsgError:
		if !c.reconnecting.Load() {
			return
		}
		if p, err := protocol.ParsePayload[protocol.ErrorPayload](msg); err == nil && p.Code == apperrors.ReasonForbidden {
			// the seat is gone; carry on as the new connection's player
			c.mu.Lock()
			if c.pendingID != "" {
				c.playerID, c.token = c.pendingID, c.pendingToken
			}
			c.roomID, c.room = "", nil
			c.mu.Unlock()
			c.reconnecting.Store(false)
		}
	case protocol.MsgRoomState:
		if p, err := protocol.ParsePayload[protocol.RoomStatePayload](msg); err == nil && p.Room != nil {
			c.mu.Lock()
			c.storeRoom(p.Room)
			c.mu.Unlock()
		}
	case protocol.MsgPong:
		if p, err := protocol.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - p.ClientTimestamp)
		}
	}
}

// storeRoom caches r unless it is older than the cached state of the same room.
// Broadcasts of concurrent actions may arrive out of order. c.mu must be held.
func (c *Client) storeRoom(r *room.Room) {
	if c.room != nil && c.room.ID == r.ID && r.Version <= c.room.Version {
		return
	}
	c.room = r
	c.roomID = r.ID
}

func (c *Client) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-conn.stop:
			return
		case <-c.done:
			_ = conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// tryReconnect redials with exponential backoff and resumes the seat.
func (c *Client) tryReconnect() {
	backoff := c.reconnectInterval
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		select {
		case <-time.After(backoff):
		case <-c.done:
			return
		}
		backoff = min(backoff*2, maxReconnectBackoff)

		ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout)
		err := c.Connect(ctx)
		cancel()
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect failed")
			continue
		}
		if err := c.Reconnect(); err != nil {
			continue
		}
		return
	}

	log.Warn().Int("attempts", maxReconnectAttempts).Msg("giving up reconnecting")
	c.reconnecting.Store(false)
	c.Close()
}

// SendMessage queues msg for the current connection.
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Receive blocks for the next frame.
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout is Receive with a deadline.
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-timer.C:
		return nil, ErrReceiveTimeout
	case <-c.done:
		return nil, ErrClosed
	}
}

// WaitFor discards frames until one of type t arrives.
func (c *Client) WaitFor(t protocol.MessageType, timeout time.Duration) (*protocol.Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrReceiveTimeout
		}
		msg, err := c.ReceiveWithTimeout(remaining)
		if err != nil {
			return nil, err
		}
		if msg.Type == t {
			return msg, nil
		}
	}
}

// Close ends the session; no reconnect follows.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		_ = c.conn.ws.Close()
	}
}

// IsConnected reports whether a live connection is attached.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.conn == nil {
		return false
	}
	select {
	case <-c.conn.stop:
		return false
	default:
		return true
	}
}

// IsReconnecting reports whether a resume is in progress.
func (c *Client) IsReconnecting() bool { return c.reconnecting.Load() }

// PlayerID is the id the server knows this session by.
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RoomID is the room this session sits in, if any.
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// Room is the latest room state received, or nil.
func (c *Client) Room() *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.room == nil {
		return nil
	}
	return c.room.Clone()
}

// Latency is the last measured ping round trip in milliseconds, -1 before the first pong.
func (c *Client) Latency() int64 { return c.latency.Load() }
