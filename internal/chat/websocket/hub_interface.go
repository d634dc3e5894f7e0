package websocket

import (
	"context"
	"encoding/json"
)

// Broadcaster is what a client needs from the hub.
type Broadcaster interface {
	OnMessage(from Connection, payload json.RawMessage)
	OnDisconnect(conn Connection)
}

type HubInterface interface {
	Broadcaster
	OnConnect(conn Connection) bool
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}
