package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chathttp "github.com/AlibekovAA/shotplot/backend/internal/chat/http"
	"github.com/AlibekovAA/shotplot/backend/internal/chat/websocket"
	"github.com/AlibekovAA/shotplot/backend/internal/common/config"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() (string, error) {
	return fmt.Sprintf("conn-%d", s.n.Add(1)), nil
}

func startServer(t *testing.T) (*httptest.Server, *websocket.Hub) {
	t.Helper()
	log := logger.NewWithWriter(&bytes.Buffer{}, "test", "ERROR")
	hub := websocket.NewHub(websocket.NewRegistry(), log, websocket.HubConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cfg := config.DefaultWebSocketConfig()
	cfg.WriteWait = time.Second

	mux := http.NewServeMux()
	chathttp.NewHandler(hub, &seqIDs{}, cfg, log).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = hub.Shutdown(sctx)
		srv.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *gorillaWS.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *websocket.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Registry().Len() == n }, 2*time.Second, 5*time.Millisecond)
}

func readMessage(t *testing.T, conn *gorillaWS.Conn) websocket.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg websocket.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWS_BroadcastReachesEveryClientIncludingSender(t *testing.T) {
	srv, hub := startServer(t)
	a, b, c := dial(t, srv), dial(t, srv), dial(t, srv)
	waitForClients(t, hub, 3)

	require.NoError(t, a.WriteMessage(gorillaWS.TextMessage, []byte(`{"type":"message","payload":{"text":"hi","from":"alice"}}`)))

	for _, conn := range []*gorillaWS.Conn{a, b, c} {
		msg := readMessage(t, conn)
		assert.Equal(t, websocket.TypeMessage, msg.Type)
		assert.JSONEq(t, `{"text":"hi","from":"alice"}`, string(msg.Payload))
	}
}

func TestWS_ClosedClientIsDeregistered(t *testing.T) {
	srv, hub := startServer(t)
	a, b := dial(t, srv), dial(t, srv)
	waitForClients(t, hub, 2)

	require.NoError(t, b.Close())
	waitForClients(t, hub, 1)

	require.NoError(t, a.WriteMessage(gorillaWS.TextMessage, []byte(`{"type":"message","payload":"bye"}`)))
	msg := readMessage(t, a)
	assert.Equal(t, `"bye"`, string(msg.Payload))
}

func TestWS_InvalidAndUnknownFramesAreSkipped(t *testing.T) {
	srv, hub := startServer(t)
	a := dial(t, srv)
	waitForClients(t, hub, 1)

	require.NoError(t, a.WriteMessage(gorillaWS.TextMessage, []byte(`not json`)))
	require.NoError(t, a.WriteMessage(gorillaWS.TextMessage, []byte(`{"type":"typing","payload":{}}`)))
	require.NoError(t, a.WriteMessage(gorillaWS.TextMessage, []byte(`{"type":"message","payload":42}`)))

	msg := readMessage(t, a)
	assert.Equal(t, "42", string(msg.Payload))
	assert.Equal(t, 1, hub.Registry().Len())
}

func TestWS_ForeignOriginRejected(t *testing.T) {
	srv, hub := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := gorillaWS.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Registry().Len())
}

func TestWS_HubShutdownClosesSockets(t *testing.T) {
	srv, hub := startServer(t)
	a := dial(t, srv)
	waitForClients(t, hub, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	require.Error(t, err)
	assert.True(t, gorillaWS.IsCloseError(err, gorillaWS.CloseNormalClosure), "got %v", err)
}
