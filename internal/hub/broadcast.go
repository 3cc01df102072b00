package hub

import (
	"strings"

	"github.com/Neeraj110/task-manager-app/internal/events"
)

// Broadcast delivers ev to every connection currently in room and returns how
// many connections accepted it. Delivery is at-most-once: nothing is queued
// for offline recipients and nothing is retried.
func (h *Hub) Broadcast(room string, ev events.ServerEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcastLocked(room, ev, "")
}

// Unicast delivers ev to the private room of identity.
func (h *Hub) Unicast(identity string, ev events.ServerEvent) int {
	return h.Broadcast(UserRoom(identity), ev)
}

// BroadcastRooms delivers ev once to every connection in the union of rooms.
// A connection that sits in several of the rooms gets a single copy.
func (h *Hub) BroadcastRooms(ev events.ServerEvent, rooms ...string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make(map[string]*session)
	for _, room := range rooms {
		for connID := range h.rooms[room] {
			if s, ok := h.sessions[connID]; ok {
				targets[connID] = s
			}
		}
	}
	if len(targets) == 0 {
		return 0
	}
	msg, err := events.Encode(ev)
	if err != nil {
		h.logger.Errorw("encode live event", "event", ev.Name(), "rooms", rooms, "error", err)
		return 0
	}

	delivered, dropped := 0, 0
	for _, s := range targets {
		if s.conn.Enqueue(msg) {
			delivered++
		} else {
			dropped++
		}
	}
	h.account(ev.Name(), strings.Join(rooms, ","), dropped)
	return delivered
}

// BroadcastAll delivers ev to every attached connection.
func (h *Hub) BroadcastAll(ev events.ServerEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcastAllLocked(ev)
}

func (h *Hub) broadcastLocked(room string, ev events.ServerEvent, except string) int {
	members := h.rooms[room]
	if len(members) == 0 {
		return 0
	}
	msg, err := events.Encode(ev)
	if err != nil {
		h.logger.Errorw("encode live event", "event", ev.Name(), "room", room, "error", err)
		return 0
	}

	delivered, dropped := 0, 0
	for connID := range members {
		if connID == except {
			continue
		}
		s, ok := h.sessions[connID]
		if !ok {
			continue
		}
		if s.conn.Enqueue(msg) {
			delivered++
		} else {
			dropped++
		}
	}
	h.account(ev.Name(), room, dropped)
	return delivered
}

func (h *Hub) broadcastAllLocked(ev events.ServerEvent) int {
	if len(h.sessions) == 0 {
		return 0
	}
	msg, err := events.Encode(ev)
	if err != nil {
		h.logger.Errorw("encode live event", "event", ev.Name(), "error", err)
		return 0
	}

	delivered, dropped := 0, 0
	for _, s := range h.sessions {
		if s.conn.Enqueue(msg) {
			delivered++
		} else {
			dropped++
		}
	}
	h.account(ev.Name(), "*", dropped)
	return delivered
}

func (h *Hub) account(event, room string, dropped int) {
	h.metrics.Broadcast(event)
	if dropped > 0 {
		h.metrics.Dropped(dropped)
		h.logger.Warnw("live event dropped", "event", event, "room", room, "connections", dropped)
	}
}
