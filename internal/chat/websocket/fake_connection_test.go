package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
)

type fakeConn struct {
	id      ConnectionID
	mu      sync.Mutex
	frames  [][]byte
	closed  int
	sendErr error
	got     chan []byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: ConnectionID(id), got: make(chan []byte, 64)}
}

func (f *fakeConn) ID() ConnectionID { return f.id }

func (f *fakeConn) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.closed > 0 {
		return commonerrors.ErrConnectionClosed
	}
	f.frames = append(f.frames, frame)
	f.got <- frame
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeConn) failWith(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

// expectFrame waits for the next frame delivered to f.
func expectFrame(t *testing.T, f *fakeConn) []byte {
	t.Helper()
	select {
	case frame := <-f.got:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatalf("connection %s received no frame", f.id)
		return nil
	}
}

func expectNoFrame(t *testing.T, f *fakeConn) {
	t.Helper()
	select {
	case frame := <-f.got:
		t.Fatalf("connection %s unexpectedly received %s", f.id, frame)
	case <-time.After(50 * time.Millisecond):
	}
}

var errBroken = errors.New("broken pipe")
