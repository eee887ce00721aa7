package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/cluegrid/internal/apperrors"
	"github.com/palemoky/cluegrid/internal/protocol"
)

const (
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent.
	pongWait = 60 * time.Second

	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one WebSocket connection.
type Client struct {
	IP string

	mu     sync.RWMutex
	id     string
	roomID string
	closed bool

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *messageLimiter
}

// NewClient wraps conn with a fresh player id.
func NewClient(s *Server, conn *websocket.Conn) *Client {
	limits := s.config.Security.MessageLimit
	return &Client{
		id:      uuid.NewString(),
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: newMessageLimiter(limits.PerSecond, limits.Burst),
	}
}

// ReadPump decodes frames and hands them to the handler until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("player", c.GetID()).Msg("read failed")
			}
			return
		}

		allowed, drop := c.limiter.allow(time.Now())
		if drop {
			log.Warn().Str("player", c.GetID()).Str("ip", c.IP).Msg("connection dropped for flooding")
			return
		}
		if !allowed {
			c.SendMessage(protocol.NewErrorMessage(apperrors.ErrRateLimited))
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.SendMessage(protocol.NewErrorMessageWithText(apperrors.ReasonInvalidPayload, "malformed message"))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues msg. A client that cannot keep up is closed.
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("encode failed")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Warn().Str("player", c.id).Msg("send buffer full")
		go c.Close()
	}
}

func (c *Client) handleDisconnect() {
	// the seat stays in the room; the session keeps it for reconnection
	c.server.handler.HandleDisconnect(c)
	c.server.unregisterClient(c)
	c.Close()
}

// Close stops the write pump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) GetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Client) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}
