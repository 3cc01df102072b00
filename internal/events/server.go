package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Neeraj110/task-manager-app/internal/model"
)

// ServerEvent is a live event pushed to connected sessions.
type ServerEvent interface {
	Name() string
	Payload() any
}

type TaskCreated struct{ Task *model.Task }

type TaskUpdated struct{ Task *model.Task }

type TaskDeleted struct {
	TaskID string `json:"taskId"`
}

// AssignmentNotification is the live copy of a persisted assignment notification.
type AssignmentNotification struct {
	TaskID         string    `json:"taskId"`
	TaskTitle      string    `json:"taskTitle"`
	AssignedBy     string    `json:"assignedBy"`
	AssignedByName string    `json:"assignedByName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// OnlineUsers carries the full online identity list, sent as a bare array.
type OnlineUsers struct{ Users []string }

type UserJoined struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type UserLeft struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (TaskCreated) Name() string            { return EventTaskCreated }
func (TaskUpdated) Name() string            { return EventTaskUpdated }
func (TaskDeleted) Name() string            { return EventTaskDeleted }
func (AssignmentNotification) Name() string { return EventNotificationAssignment }
func (OnlineUsers) Name() string            { return EventOnlineUsers }
func (UserJoined) Name() string             { return EventUserJoined }
func (UserLeft) Name() string               { return EventUserLeft }

func (e TaskCreated) Payload() any            { return e.Task }
func (e TaskUpdated) Payload() any            { return e.Task }
func (e TaskDeleted) Payload() any            { return e }
func (e AssignmentNotification) Payload() any { return e }
func (e UserJoined) Payload() any             { return e }
func (e UserLeft) Payload() any               { return e }

func (e OnlineUsers) Payload() any {
	if e.Users == nil {
		return []string{}
	}
	return e.Users
}

// Encode renders a server event as one wire frame.
func Encode(ev ServerEvent) ([]byte, error) {
	data, err := json.Marshal(ev.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Name(), err)
	}
	return json.Marshal(Envelope{Event: ev.Name(), Data: data})
}

// DecodeServer parses a frame received from the server.
func DecodeServer(raw []byte) (ServerEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Event {
	case EventTaskCreated:
		var t model.Task
		if err := unmarshalData(env.Data, &t); err != nil {
			return nil, err
		}
		return TaskCreated{Task: &t}, nil
	case EventTaskUpdated:
		var t model.Task
		if err := unmarshalData(env.Data, &t); err != nil {
			return nil, err
		}
		return TaskUpdated{Task: &t}, nil
	case EventTaskDeleted:
		var e TaskDeleted
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventNotificationAssignment:
		var e AssignmentNotification
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventOnlineUsers:
		var users []string
		if err := unmarshalData(env.Data, &users); err != nil {
			return nil, err
		}
		return OnlineUsers{Users: users}, nil
	case EventUserJoined:
		var e UserJoined
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventUserLeft:
		var e UserLeft
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}
