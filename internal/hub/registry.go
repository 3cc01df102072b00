package hub

import (
	"sort"

	"github.com/Neeraj110/task-manager-app/internal/events"
)

// Register binds identity to the connection, joins its private room and
// broadcasts the online set to every session. An empty identity or an
// unknown connection is a silent no-op. Re-registering an identity moves it
// to the newer connection.
func (h *Hub) Register(connID, identity, displayName string) bool {
	if identity == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[connID]
	if !ok {
		return false
	}

	if s.identity != "" && s.identity != identity {
		h.leaveLocked(s, UserRoom(s.identity))
		if h.online[s.identity] == connID {
			delete(h.online, s.identity)
		}
	}

	s.identity = identity
	s.displayName = displayName
	h.online[identity] = connID
	h.joinLocked(s, UserRoom(identity))

	h.metrics.SetOnlineUsers(len(h.online))
	h.logger.Infow("user registered", "user_id", identity, "user_name", displayName, "conn_id", connID)

	h.broadcastAllLocked(events.OnlineUsers{Users: h.onlineLocked()})
	return true
}

// Unregister runs disconnect cleanup for a connection: it leaves every room
// (board peers get user:left), forgets the session and, when the connection
// is still the one on file for its identity, removes the identity from the
// online set and re-broadcasts it.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[connID]
	if !ok {
		return
	}

	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
	delete(h.sessions, connID)
	h.metrics.SetConnections(len(h.sessions))

	if s.identity == "" {
		h.logger.Debugw("anonymous connection gone", "conn_id", connID)
		return
	}
	if h.online[s.identity] != connID {
		h.logger.Debugw("stale disconnect ignored", "user_id", s.identity, "conn_id", connID)
		return
	}

	delete(h.online, s.identity)
	h.metrics.SetOnlineUsers(len(h.online))
	h.logger.Infow("user disconnected", "user_id", s.identity, "conn_id", connID)

	h.broadcastAllLocked(events.OnlineUsers{Users: h.onlineLocked()})
}

func (h *Hub) IsOnline(identity string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.online[identity]
	return ok
}

// ListOnline returns the online identities, sorted.
func (h *Hub) ListOnline() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []string {
	out := make([]string, 0, len(h.online))
	for id := range h.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
