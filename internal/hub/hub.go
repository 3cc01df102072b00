// Package hub tracks live sessions, the online-user set and room membership,
// and fans live events out to rooms. All state lives in one Hub value that is
// built at process start and torn down at shutdown; every operation runs to
// completion under the hub lock, so per-room delivery order equals emission
// order.
package hub

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/metrics"
)

// Conn is the hub's view of a transport session.
type Conn interface {
	ConnID() string
	// Enqueue must not block; false means the frame was dropped.
	Enqueue(msg []byte) bool
}

const (
	RoomDashboard = "dashboard"
	boardPrefix   = "board:"
	userPrefix    = "user:"
)

func BoardRoom(boardID string) string { return boardPrefix + boardID }

func UserRoom(identity string) string { return userPrefix + identity }

func isBoardRoom(room string) bool { return strings.HasPrefix(room, boardPrefix) }

type session struct {
	conn        Conn
	identity    string
	displayName string
	rooms       map[string]struct{}
}

type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session            // connID -> session
	online   map[string]string              // identity -> connID, last register wins
	rooms    map[string]map[string]struct{} // room -> set of connIDs

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func New(logger *zap.SugaredLogger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		sessions: make(map[string]*session),
		online:   make(map[string]string),
		rooms:    make(map[string]map[string]struct{}),
		logger:   logger,
		metrics:  m,
	}
}

// Attach tracks a freshly connected, still anonymous session.
func (h *Hub) Attach(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[c.ConnID()]; ok {
		return
	}
	h.sessions[c.ConnID()] = &session{conn: c, rooms: make(map[string]struct{})}
	h.metrics.SetConnections(len(h.sessions))
	h.logger.Debugw("connection attached", "conn_id", c.ConnID())
}

// Close drops every session, room and online entry. Transports are not
// touched; the caller owns them.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = make(map[string]*session)
	h.online = make(map[string]string)
	h.rooms = make(map[string]map[string]struct{})
	h.metrics.SetConnections(0)
	h.metrics.SetOnlineUsers(0)
}

// ConnectionCount returns the number of attached sessions.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Identity returns the identity and display name bound to a connection.
func (h *Hub) Identity(connID string) (identity, displayName string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[connID]
	if !ok {
		return "", "", false
	}
	return s.identity, s.displayName, true
}
