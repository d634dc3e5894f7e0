package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
)

type MessageType string

const TypeMessage MessageType = "message"

func (mt MessageType) String() string {
	return string(mt)
}

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var (
	errEmptyFrame   = errors.New("empty frame")
	errMissingType  = errors.New("missing type")
	nullPayload     = json.RawMessage("null")
	frameTypePrefix = []byte(`{"type":"message","payload":`)
)

func decodeFrame(data []byte) (WSMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return WSMessage{}, errEmptyFrame
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	if msg.Type == "" {
		return WSMessage{}, errMissingType
	}
	if len(msg.Payload) == 0 {
		msg.Payload = nullPayload
	}
	return msg, nil
}

// encodeMessageFrame wraps payload in a message envelope without
// re-encoding it, so recipients get the sender's bytes.
func encodeMessageFrame(payload json.RawMessage) []byte {
	if len(payload) == 0 {
		payload = nullPayload
	}
	frame := make([]byte, 0, len(frameTypePrefix)+len(payload)+1)
	frame = append(frame, frameTypePrefix...)
	frame = append(frame, payload...)
	return append(frame, '}')
}
