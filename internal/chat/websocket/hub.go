package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/AlibekovAA/shotplot/backend/internal/chat/metrics"
	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

const defaultEventQueueSize = 256

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventBroadcast
)

type hubEvent struct {
	kind    eventKind
	conn    Connection
	payload json.RawMessage
}

// Hub serialises connect, disconnect and broadcast events through a single
// loop owned by Run. Events posted by one goroutine are handled in the order
// they were posted.
type Hub struct {
	registry *Registry
	events   chan hubEvent
	log      *logger.Logger

	mu       sync.RWMutex
	stopped  bool
	inflight sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	finished chan struct{}
}

type HubConfig struct {
	EventQueueSize int
}

func NewHub(registry *Registry, log *logger.Logger, config HubConfig) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	size := config.EventQueueSize
	if size <= 0 {
		size = defaultEventQueueSize
	}
	return &Hub{
		registry: registry,
		events:   make(chan hubEvent, size),
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// OnConnect registers conn. It reports false, after closing conn, when the
// hub has already stopped.
func (h *Hub) OnConnect(conn Connection) bool {
	if !h.post(hubEvent{kind: eventConnect, conn: conn}) {
		conn.Close()
		return false
	}
	return true
}

func (h *Hub) OnDisconnect(conn Connection) {
	h.post(hubEvent{kind: eventDisconnect, conn: conn})
}

// OnMessage queues payload for delivery to every registered connection,
// the sender included.
func (h *Hub) OnMessage(from Connection, payload json.RawMessage) {
	h.post(hubEvent{kind: eventBroadcast, conn: from, payload: payload})
}

func (h *Hub) post(ev hubEvent) bool {
	h.mu.RLock()
	if h.stopped {
		h.mu.RUnlock()
		return false
	}
	h.inflight.Add(1)
	h.mu.RUnlock()
	defer h.inflight.Done()

	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run handles events until ctx is cancelled or Shutdown is called, then
// closes every registered connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.finished)

	h.log.WithFields(ctx, logger.Fields{"action": "ws_hub_start"}).Info("websocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return
		case <-h.stop:
			h.shutdown(ctx)
			return
		case ev := <-h.events:
			h.handle(ctx, ev)
		}
	}
}

// Shutdown stops Run and waits for it to close all connections.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })
	select {
	case <-h.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) handle(ctx context.Context, ev hubEvent) {
	switch ev.kind {
	case eventConnect:
		h.registry.Register(ev.conn)
		metrics.IncrementActiveWebSocketConnections()
		h.log.WithFields(ctx, logger.Fields{
			"connection_id": string(ev.conn.ID()),
			"total":         h.registry.Len(),
			"action":        "ws_register",
		}).Info("websocket client registered")

	case eventDisconnect:
		if !h.registry.Deregister(HandleOf(ev.conn)) {
			return
		}
		ev.conn.Close()
		metrics.DecrementActiveWebSocketConnections("client")
		h.log.WithFields(ctx, logger.Fields{
			"connection_id": string(ev.conn.ID()),
			"total":         h.registry.Len(),
			"action":        "ws_unregister",
		}).Info("websocket client unregistered")

	case eventBroadcast:
		h.broadcast(ctx, ev.conn, ev.payload)
	}
}

func (h *Hub) broadcast(ctx context.Context, from Connection, payload json.RawMessage) {
	frame := encodeMessageFrame(payload)

	delivered, failed := 0, 0
	for conn := range h.registry.All() {
		if err := conn.Send(frame); err != nil {
			failed++
			reason := deliveryFailureReason(err)
			metrics.IncrementDeliveryFailure(reason)
			h.log.WithFields(ctx, logger.Fields{
				"connection_id": string(conn.ID()),
				"reason":        reason,
				"action":        "ws_delivery_failed",
			}).Warnf("websocket delivery failed: %v", err)
			continue
		}
		delivered++
	}

	metrics.RecordBroadcast(delivered)

	if h.log.ShouldLog(logger.DEBUG) {
		fields := logger.Fields{
			"delivered": delivered,
			"failed":    failed,
			"action":    "ws_broadcast",
		}
		if from != nil {
			fields["from"] = string(from.ID())
		}
		h.log.WithFields(ctx, fields).Debug("websocket message broadcast")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	close(h.done)

	// Posters that got in before the flag flipped either enqueued or saw done.
	drained := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(drained)
	}()

	pending := 0
	for waiting := true; waiting; {
		select {
		case ev := <-h.events:
			pending++
			h.discard(ev)
		case <-drained:
			waiting = false
		}
	}
	for flushing := true; flushing; {
		select {
		case ev := <-h.events:
			pending++
			h.discard(ev)
		default:
			flushing = false
		}
	}

	conns := h.registry.Drain()
	for _, conn := range conns {
		conn.Close()
		metrics.DecrementActiveWebSocketConnections("shutdown")
	}

	h.log.WithFields(ctx, logger.Fields{
		"clients":        len(conns),
		"pending_events": pending,
		"action":         "ws_hub_shutdown",
	}).Info("websocket hub shutdown completed")
}

// discard handles an event that arrived after the hub stopped. Connections
// that were about to register are closed instead.
func (h *Hub) discard(ev hubEvent) {
	switch ev.kind {
	case eventConnect:
		ev.conn.Close()
	case eventDisconnect:
		if h.registry.Deregister(HandleOf(ev.conn)) {
			ev.conn.Close()
			metrics.DecrementActiveWebSocketConnections("client")
		}
	}
}

func deliveryFailureReason(err error) string {
	switch {
	case errors.Is(err, commonerrors.ErrSendBufferFull):
		return "buffer_full"
	case errors.Is(err, commonerrors.ErrConnectionClosed):
		return "closed"
	default:
		return "error"
	}
}
