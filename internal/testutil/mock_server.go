//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/cluegrid/internal/protocol"
	"github.com/palemoky/cluegrid/internal/types"
)

var (
	_ types.ServerInterface = (*MockServer)(nil)
	_ types.ServerInterface = (*SimpleServer)(nil)
)

// MockServer records registry and broadcast calls for handler tests that
// assert who was registered and which room was told.
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) GetClientByID(id string) types.ClientInterface {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.ClientInterface)
}

func (m *MockServer) RegisterClient(id string, client types.ClientInterface) {
	m.Called(id, client)
}

func (m *MockServer) UnregisterClient(id string) {
	m.Called(id)
}

func (m *MockServer) BroadcastToRoom(roomID string, msg *protocol.Message) {
	m.Called(roomID, msg)
}

// SimpleServer is an in-memory client registry that broadcasts by room.
type SimpleServer struct {
	mu          sync.RWMutex
	clients     map[string]types.ClientInterface
	Maintenance bool
}

// NewSimpleServer creates an empty registry.
func NewSimpleServer() *SimpleServer {
	return &SimpleServer{clients: make(map[string]types.ClientInterface)}
}

func (s *SimpleServer) IsMaintenanceMode() bool { return s.Maintenance }

func (s *SimpleServer) GetOnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *SimpleServer) GetClientByID(id string) types.ClientInterface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[id]
}

func (s *SimpleServer) RegisterClient(id string, client types.ClientInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = client
}

func (s *SimpleServer) UnregisterClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func (s *SimpleServer) BroadcastToRoom(roomID string, msg *protocol.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.GetRoom() == roomID {
			c.SendMessage(msg)
		}
	}
}
