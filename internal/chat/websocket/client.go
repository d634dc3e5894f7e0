package websocket

import (
	"context"
	"sync"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/shotplot/backend/internal/chat/metrics"
	"github.com/AlibekovAA/shotplot/backend/internal/common/config"
	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

// Client adapts a gorilla connection to Connection. readPump feeds the hub,
// writePump drains the send buffer and keeps the peer alive with pings.
type Client struct {
	ctx        context.Context
	id         ConnectionID
	hub        Broadcaster
	conn       *gorillaWS.Conn
	remoteAddr string
	cfg        config.WebSocketConfig
	log        *logger.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient keeps ctx values such as the trace id for logging; its
// cancellation is ignored since the socket outlives the upgrade request.
func NewClient(ctx context.Context, id ConnectionID, hub Broadcaster, conn *gorillaWS.Conn, remoteAddr string, cfg config.WebSocketConfig, log *logger.Logger) *Client {
	return &Client{
		ctx:        context.WithoutCancel(ctx),
		id:         id,
		hub:        hub,
		conn:       conn,
		remoteAddr: remoteAddr,
		cfg:        cfg,
		log:        log,
		send:       make(chan []byte, cfg.SendBufSize),
	}
}

func (c *Client) ID() ConnectionID {
	return c.id
}

// Send queues frame without blocking.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return commonerrors.ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return commonerrors.ErrSendBufferFull
	}
}

// Close stops accepting frames. writePump flushes what is queued, sends a
// close frame and tears the socket down.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.OnDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure, gorillaWS.CloseNoStatusReceived) {
				metrics.IncrementWebSocketError("read")
				c.log.WithFields(c.ctx, c.fields("ws_read_error")).Warnf("websocket read error: %v", err)
			}
			return
		}
		if messageType != gorillaWS.TextMessage {
			continue
		}

		msg, err := decodeFrame(data)
		if err != nil {
			metrics.IncrementWebSocketError("invalid_frame")
			c.log.WithFields(c.ctx, c.fields("ws_invalid_message")).Warnf("websocket invalid message: %v", err)
			continue
		}

		if msg.Type != TypeMessage {
			if c.log.ShouldLog(logger.DEBUG) {
				c.log.WithFields(c.ctx, c.fields("ws_ignored_message")).Debugf("websocket ignoring message type %q", msg.Type)
			}
			continue
		}

		c.hub.OnMessage(c, msg.Payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(gorillaWS.TextMessage, frame); err != nil {
				metrics.IncrementWebSocketError("write")
				c.log.WithFields(c.ctx, c.fields("ws_write_error")).Warnf("websocket write error: %v", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) fields(action string) logger.Fields {
	return logger.Fields{
		"connection_id": string(c.id),
		"remote_addr":   c.remoteAddr,
		"action":        action,
	}
}
