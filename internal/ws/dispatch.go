package ws

import (
	"golang.org/x/time/rate"

	"github.com/Neeraj110/task-manager-app/internal/connection"
	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/hub"
)

type session struct {
	client *connection.Client
	// subject is the verified token identity; empty when tokens are not required.
	subject string
	limiter *rate.Limiter
}

// handleFrame applies one inbound client frame. Faults are logged and the
// frame is dropped; the connection stays open.
func (h *Handler) handleFrame(s *session, raw []byte) {
	connID := s.client.ID
	if !s.limiter.Allow() {
		h.logger.Warnw("ws event rate limited", "conn_id", connID)
		return
	}

	ev, err := events.DecodeClient(raw)
	if err != nil {
		h.logger.Debugw("ws frame dropped", "conn_id", connID, "error", err)
		return
	}

	switch e := ev.(type) {
	case events.Register:
		if s.subject != "" && e.UserID != s.subject {
			h.logger.Warnw("register does not match token", "conn_id", connID, "user_id", e.UserID, "subject", s.subject)
			return
		}
		h.hub.Register(connID, e.UserID, e.UserName)
	case events.JoinDashboard:
		h.hub.JoinRoom(connID, hub.RoomDashboard)
	case events.LeaveDashboard:
		h.hub.LeaveRoom(connID, hub.RoomDashboard)
	case events.JoinBoard:
		h.hub.JoinRoom(connID, hub.BoardRoom(e.BoardID))
	case events.LeaveBoard:
		h.hub.LeaveRoom(connID, hub.BoardRoom(e.BoardID))
	}
}
