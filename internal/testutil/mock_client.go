//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/types"
)

var (
	_ types.ClientInterface = (*MockClient)(nil)
	_ types.ClientInterface = (*SimpleClient)(nil)
)

// MockClient is a connection whose calls are asserted with testify
// expectations, e.g. SetID and SetRoom during a reconnect.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetID(id string) {
	m.Called(id)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient records sent messages without expectations.
type SimpleClient struct {
	mu       sync.Mutex
	ID       string
	RoomID   string
	Messages []*protocol.Message
	Closed   bool
}

func (c *SimpleClient) GetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ID
}

func (c *SimpleClient) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ID = id
}

func (c *SimpleClient) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RoomID
}

func (c *SimpleClient) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RoomID = roomID
}

func (c *SimpleClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, msg)
}

func (c *SimpleClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

// Last returns the most recent message, or nil.
func (c *SimpleClient) Last() *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Reset drops the recorded messages.
func (c *SimpleClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = nil
}
