package websocket

type ConnectionID string

// Connection is one live client session as seen by the hub. Send must not
// block; Close must be safe to call more than once.
type Connection interface {
	ID() ConnectionID
	Send(frame []byte) error
	Close()
}
