// Package types holds the interfaces shared by the transport and the handlers.
package types

import (
	"github.com/palemoky/cluegrid/internal/protocol"
)

// ServerInterface is what handlers need from the server, kept apart to avoid an import cycle.
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
	RegisterClient(id string, client ClientInterface)
	UnregisterClient(id string)
	BroadcastToRoom(roomID string, msg *protocol.Message)
}

// ClientInterface is one connected player.
type ClientInterface interface {
	GetID() string
	// SetID rebinds the connection to a resumed player id.
	SetID(id string)
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}
