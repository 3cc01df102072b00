package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ClientEvent is an inbound event that passed boundary validation.
type ClientEvent interface {
	Name() string
}

// Register binds the connection to an identity. An empty UserID is accepted
// here and ignored by the registry.
type Register struct {
	UserID   string `json:"userId" validate:"max=128"`
	UserName string `json:"userName" validate:"max=128"`
}

type JoinDashboard struct{}

type LeaveDashboard struct{}

type JoinBoard struct {
	BoardID string `json:"boardId" validate:"required,max=128"`
}

type LeaveBoard struct {
	BoardID string `json:"boardId" validate:"required,max=128"`
}

func (Register) Name() string       { return EventRegister }
func (JoinDashboard) Name() string  { return EventJoinDashboard }
func (LeaveDashboard) Name() string { return EventLeaveDashboard }
func (JoinBoard) Name() string      { return EventJoinBoard }
func (LeaveBoard) Name() string     { return EventLeaveBoard }

// DecodeClient parses and validates one inbound frame.
func DecodeClient(raw []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var ev ClientEvent
	switch env.Event {
	case EventRegister:
		var r Register
		if err := unmarshalData(env.Data, &r); err != nil {
			return nil, err
		}
		r.UserID = strings.TrimSpace(r.UserID)
		ev = r
	case EventJoinDashboard:
		ev = JoinDashboard{}
	case EventLeaveDashboard:
		ev = LeaveDashboard{}
	case EventJoinBoard:
		id, err := boardID(env.Data)
		if err != nil {
			return nil, err
		}
		ev = JoinBoard{BoardID: id}
	case EventLeaveBoard:
		id, err := boardID(env.Data)
		if err != nil {
			return nil, err
		}
		ev = LeaveBoard{BoardID: id}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if err := validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, env.Event, err)
	}
	return ev, nil
}

// EncodeClient builds an outbound frame for the client side of the protocol.
func EncodeClient(ev ClientEvent) ([]byte, error) {
	env := struct {
		Event string      `json:"event"`
		Data  ClientEvent `json:"data,omitempty"`
	}{Event: ev.Name()}
	switch ev.(type) {
	case JoinDashboard, LeaveDashboard:
	default:
		env.Data = ev
	}
	return json.Marshal(env)
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// boardID accepts either {"boardId": "..."} or a bare JSON string.
func boardID(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var b JoinBoard
	if err := unmarshalData(data, &b); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.BoardID), nil
}
