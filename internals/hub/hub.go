package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/thebowwman/navplot/internals/auth"
)

const writeTimeout = 5 * time.Second

// SessionHub fans route updates out to every websocket attached to one
// session.
type SessionHub struct {
	ID      string
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

func NewHub(id string) *SessionHub {

	return &SessionHub{
		ID:      id,
		clients: make(map[*WSClient]struct{}),
	}
}

func (h *SessionHub) AddClient(c *WSClient) {

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *SessionHub) RemoveClient(c *WSClient) {

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *SessionHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client accepted by filter; a nil filter
// accepts all.
func (h *SessionHub) Broadcast(msg any, filter func(*WSClient) bool) error {

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	for c := range h.clients {

		if filter == nil || filter(c) {
			c.Send(b)
		}
	}

	h.mu.RUnlock()
	return nil
}

// Registry maps session IDs to their hubs.
type Registry struct {
	hubs sync.Map
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) GetOrCreateHub(id string) *SessionHub {

	if v, ok := r.hubs.Load(id); ok {
		return v.(*SessionHub)
	}
	h := NewHub(id)
	v, _ := r.hubs.LoadOrStore(id, h)
	return v.(*SessionHub)

}

// Lookup returns the hub for id without creating one.
func (r *Registry) Lookup(id string) (*SessionHub, bool) {
	v, ok := r.hubs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*SessionHub), true
}

func (r *Registry) Remove(id string) { r.hubs.Delete(id) }

type WSClient struct {
	conn *websocket.Conn
	role auth.Role
	mu   sync.Mutex
}

func NewWSClient(conn *websocket.Conn, role auth.Role) *WSClient {

	return &WSClient{
		conn: conn,
		role: role,
	}
}

func (c *WSClient) Send(b []byte) {

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_ = c.conn.Write(ctx, websocket.MessageText, b)

}

func (c *WSClient) Role() auth.Role { return c.role }

// SendJSON wraps payload as {"type": typ, "data": payload}.
func (c *WSClient) SendJSON(typ string, payload any) {

	b, err := json.Marshal(Message{Type: typ, Data: payload})
	if err != nil {
		return
	}
	c.Send(b)
}

// Message is the envelope of every server-to-client websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
