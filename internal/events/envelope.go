// Package events defines the realtime wire protocol: every frame is an
// Envelope naming the event and carrying its data, and each direction has
// its own closed set of typed events.
package events

import (
	"encoding/json"
	"errors"
)

// Client to server.
const (
	EventRegister       = "register"
	EventJoinDashboard  = "join:dashboard"
	EventLeaveDashboard = "leave:dashboard"
	EventJoinBoard      = "join:board"
	EventLeaveBoard     = "leave:board"
)

// Server to client.
const (
	EventTaskCreated            = "task:created"
	EventTaskUpdated            = "task:updated"
	EventTaskDeleted            = "task:deleted"
	EventNotificationAssignment = "notification:assignment"
	EventOnlineUsers            = "onlineUsers"
	EventUserJoined             = "user:joined"
	EventUserLeft               = "user:left"
)

var (
	ErrMalformed    = errors.New("malformed frame")
	ErrUnknownEvent = errors.New("unknown event")
	ErrInvalid      = errors.New("invalid event payload")
)

// Envelope is the standard wire format for ws frames in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
