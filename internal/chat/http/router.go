package http

import (
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/shotplot/backend/internal/chat/metrics"
	"github.com/AlibekovAA/shotplot/backend/internal/chat/websocket"
	"github.com/AlibekovAA/shotplot/backend/internal/common/config"
	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/shotplot/backend/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/shotplot/backend/internal/common/http"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

// Hub is the part of the broadcast hub the upgrade endpoint drives.
type Hub interface {
	websocket.Broadcaster
	OnConnect(conn websocket.Connection) bool
}

type Handler struct {
	hub      Hub
	ids      commoncrypto.IDGenerator
	upgrader gorillaWS.Upgrader
	cfg      config.WebSocketConfig
	log      *logger.Logger
}

func NewHandler(hub Hub, ids commoncrypto.IDGenerator, cfg config.WebSocketConfig, log *logger.Logger) *Handler {
	if ids == nil {
		ids = commoncrypto.NewUUIDGenerator()
	}
	return &Handler{
		hub: hub,
		ids: ids,
		cfg: cfg,
		log: log,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.WebSocketReadBufferSize,
			WriteBufferSize: constants.WebSocketWriteBufferSize,
			CheckOrigin:     sameOrigin,
		},
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/ws", commonhttp.BuildStreamHandler(h.log, http.HandlerFunc(h.serveWS)))
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests from the serving host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return origin == "http://"+host || origin == "https://"+host
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	remoteAddr := commonhttp.GetClientIP(r)

	if r.Method != http.MethodGet {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := h.ids.NewID()
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"remote_addr": remoteAddr,
			"action":      "ws_id_generation_failed",
		}).Errorf("websocket connection id generation failed: %v", err)
		commonhttp.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Upgrade writes its own error response.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.IncrementWebSocketError("upgrade")
		h.log.WithFields(ctx, logger.Fields{
			"remote_addr": remoteAddr,
			"action":      "ws_upgrade_failed",
		}).Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(ctx, websocket.ConnectionID(id), h.hub, conn, remoteAddr, h.cfg, h.log)

	h.log.WithFields(ctx, logger.Fields{
		"connection_id": id,
		"remote_addr":   remoteAddr,
		"action":        "ws_connect",
	}).Info("websocket connection accepted")

	// Pumps start even when the hub refused the client: the closed send
	// buffer makes writePump send a close frame and release the socket.
	h.hub.OnConnect(client)
	client.Start()
}
