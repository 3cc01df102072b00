package hub

import (
	"sort"

	"github.com/Neeraj110/task-manager-app/internal/events"
)

// JoinRoom adds the connection to room. Joining twice is harmless. Joining a
// board room tells the other members who arrived.
func (h *Hub) JoinRoom(connID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[connID]
	if !ok {
		return false
	}
	return h.joinLocked(s, room)
}

// LeaveRoom removes the connection from room. Leaving a room not joined is
// harmless. Leaving a board room tells the remaining members.
func (h *Hub) LeaveRoom(connID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[connID]
	if !ok {
		return false
	}
	return h.leaveLocked(s, room)
}

// Members returns the connection ids currently in room, sorted.
func (h *Hub) Members(room string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RoomsOf returns the rooms a connection is in, sorted.
func (h *Hub) RoomsOf(connID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s.rooms))
	for r := range s.rooms {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) joinLocked(s *session, room string) bool {
	if _, ok := s.rooms[room]; ok {
		return false
	}
	announce := isBoardRoom(room) && s.identity != "" && !h.identityInRoomLocked(room, s.identity)
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	connID := s.conn.ConnID()
	members[connID] = struct{}{}
	s.rooms[room] = struct{}{}

	h.logger.Debugw("joined room", "room", room, "conn_id", connID, "user_id", s.identity)
	if announce {
		h.broadcastLocked(room, events.UserJoined{UserID: s.identity, UserName: s.displayName}, connID)
	}
	return true
}

func (h *Hub) leaveLocked(s *session, room string) bool {
	if _, ok := s.rooms[room]; !ok {
		return false
	}
	connID := s.conn.ConnID()
	delete(s.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}

	h.logger.Debugw("left room", "room", room, "conn_id", connID, "user_id", s.identity)
	if isBoardRoom(room) && s.identity != "" && !h.identityInRoomLocked(room, s.identity) {
		h.broadcastLocked(room, events.UserLeft{UserID: s.identity, UserName: s.displayName}, connID)
	}
	return true
}

// identityInRoomLocked reports whether any connection bound to identity is in
// room. Board peers see one arrival and one departure per identity, however
// many tabs it has open.
func (h *Hub) identityInRoomLocked(room, identity string) bool {
	for connID := range h.rooms[room] {
		if other, ok := h.sessions[connID]; ok && other.identity == identity {
			return true
		}
	}
	return false
}
