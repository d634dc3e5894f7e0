package websocket

import (
	"iter"
	"sync"
)

// Handle identifies a registration.
type Handle struct {
	id ConnectionID
}

func (h Handle) ID() ConnectionID {
	return h.id
}

// HandleOf returns the handle Register produced for conn.
func HandleOf(conn Connection) Handle {
	return Handle{id: conn.ID()}
}

// Registry is the set of live connections. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnectionID]Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnectionID]Connection)}
}

// Register adds conn, replacing any connection with the same ID.
func (r *Registry) Register(conn Connection) Handle {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.mu.Unlock()
	return Handle{id: conn.ID()}
}

// Deregister removes the connection behind h. It reports whether anything
// was removed; removing an absent handle is a no-op.
func (r *Registry) Deregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[h.id]; !ok {
		return false
	}
	delete(r.conns, h.id)
	return true
}

// All yields the connections registered when iteration starts. Each range
// over the sequence takes a fresh snapshot, so it can be restarted and is
// unaffected by registrations made while it runs.
func (r *Registry) All() iter.Seq[Connection] {
	return func(yield func(Connection) bool) {
		for _, conn := range r.snapshot() {
			if !yield(conn) {
				return
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Drain empties the registry and returns what it held.
func (r *Registry) Drain() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Connection, 0, len(r.conns))
	for id, conn := range r.conns {
		out = append(out, conn)
		delete(r.conns, id)
	}
	return out
}

func (r *Registry) snapshot() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}
