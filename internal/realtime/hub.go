package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// wireConn is the subset of *websocket.Conn the hub writes through. Narrowed
// so tests can stand in failing connections.
type wireConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Conn is one registered live connection. Gorilla connections allow a single
// concurrent writer, so every write goes through the connection's own mutex.
type Conn struct {
	userID uuid.UUID
	ws     wireConn
	mu     sync.Mutex
}

// WriteJSON marshals the payload and writes one text frame.
func (c *Conn) WriteJSON(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// userConns holds one user's connection set behind its own lock, so
// membership changes and broadcasts serialize per user without a global
// cross-user lock.
type userConns struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// Hub tracks every user's live connections and fans pushed events out to
// them. The top-level registry lock only guards the user map itself; all
// per-user work happens under that user's lock.
type Hub struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*userConns
	logger utils.Logger
}

func NewHub(logger utils.Logger) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]*userConns),
		logger: logger,
	}
}

// Register adds a connection under the user's set and returns the handle
// used for later writes and deregistration.
func (h *Hub) Register(userID uuid.UUID, ws wireConn) *Conn {
	conn := &Conn{userID: userID, ws: ws}

	// The insert happens under h.mu: dropping it before the insert would
	// let a concurrent Unregister of the user's last connection delete the
	// entry and strand this connection in an unreachable set.
	h.mu.Lock()
	uc, ok := h.users[userID]
	if !ok {
		uc = &userConns{conns: make(map[*Conn]struct{})}
		h.users[userID] = uc
	}
	uc.mu.Lock()
	uc.conns[conn] = struct{}{}
	total := len(uc.conns)
	uc.mu.Unlock()
	h.mu.Unlock()

	h.logger.Info("User connected", "user_id", userID, "connections", total)
	return conn
}

// Unregister removes the connection; the user entry goes away with its last
// connection.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	uc, ok := h.users[conn.userID]
	if !ok {
		h.mu.Unlock()
		return
	}

	uc.mu.Lock()
	delete(uc.conns, conn)
	empty := len(uc.conns) == 0
	uc.mu.Unlock()

	if empty {
		delete(h.users, conn.userID)
	}
	h.mu.Unlock()

	h.logger.Info("User disconnected", "user_id", conn.userID)
}

// Push writes the payload to every live connection of the target user. A
// write failure deregisters only the failing connection; delivery to the
// user's remaining connections continues. A user with no connections is not
// an error.
func (h *Hub) Push(ctx context.Context, userID uuid.UUID, payload interface{}) {
	h.mu.RLock()
	uc, ok := h.users[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	uc.mu.Lock()
	targets := make([]*Conn, 0, len(uc.conns))
	for conn := range uc.conns {
		targets = append(targets, conn)
	}
	uc.mu.Unlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(payload); err != nil {
			h.logger.Warn("Dropping dead connection after failed push",
				"user_id", userID, "error", err)
			conn.ws.Close()
			h.Unregister(conn)
		}
	}
}

// ConnectionCount returns how many live connections a user currently holds.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	uc, ok := h.users[userID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.conns)
}
