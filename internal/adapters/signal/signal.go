package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/guilhermebehs/clone-clubehouse-back/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn wraps one websocket with a buffered send channel. trySend never
// blocks; a full buffer is a backpressure error and the frame is dropped.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Hub implements core.Transport over gorilla websockets. It owns every live
// connection and the room/lobby delivery groups; the core never touches a
// socket directly. Each websocket gets its own session id, so a browser
// holding a room connection and a lobby connection counts as two sessions.
type Hub struct {
	mu     sync.RWMutex
	conns  map[core.SessionID]*wsConn
	groups map[core.GroupID]map[core.SessionID]struct{}

	events  map[string]core.Handler
	limiter *JoinRateLimiter

	onConnect    func(core.SessionID)
	onDisconnect func(core.SessionID) error
}

func NewHub(limiter *JoinRateLimiter) *Hub {
	return &Hub{
		conns:   make(map[core.SessionID]*wsConn),
		groups:  make(map[core.GroupID]map[core.SessionID]struct{}),
		limiter: limiter,
	}
}

// Bind wires the controller's event table and lifecycle hooks. The hub is
// constructed before the controller (the controller needs a Transport), so
// binding is a second step.
func (h *Hub) Bind(ctrl *core.Controller) {
	h.events = ctrl.Events()
	h.onConnect = ctrl.OnNewConnection
	h.onDisconnect = ctrl.Disconnect
}

func (h *Hub) EmitToSession(sid core.SessionID, event string, payload any) {
	h.mu.RLock()
	conn, ok := h.conns[sid]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.sendJSON(conn, envelope{Type: event, Payload: payload})
}

func (h *Hub) EmitToGroup(group core.GroupID, event string, payload any, exclude core.SessionID) {
	h.mu.RLock()
	members := make([]*wsConn, 0, len(h.groups[group]))
	for sid := range h.groups[group] {
		if sid == exclude {
			continue
		}
		if conn, ok := h.conns[sid]; ok {
			members = append(members, conn)
		}
	}
	h.mu.RUnlock()

	env := envelope{Type: event, Payload: payload}
	for _, conn := range members {
		h.sendJSON(conn, env)
	}
}

func (h *Hub) JoinGroup(sid core.SessionID, group core.GroupID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[core.SessionID]struct{})
	}
	h.groups[group][sid] = struct{}{}
}

// dropSession forgets the connection and every group membership. Runs after
// the read pump exits.
func (h *Hub) dropSession(sid core.SessionID) {
	h.limiter.Forget(sid)
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, sid)
	for group, members := range h.groups {
		delete(members, sid)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request, buffer int) (core.SessionID, *wsConn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return "", nil, err
	}
	sid := core.SessionID(uuid.NewString())
	conn := &wsConn{conn: ws, send: make(chan []byte, buffer)}
	h.mu.Lock()
	h.conns[sid] = conn
	h.mu.Unlock()
	return sid, conn, nil
}
