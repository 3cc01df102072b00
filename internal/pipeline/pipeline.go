// Package pipeline turns committed task writes into live events and
// assignment notifications.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/model"
	"github.com/Neeraj110/task-manager-app/internal/notification"
)

type Broadcaster interface {
	BroadcastRooms(ev events.ServerEvent, rooms ...string) int
}

type Notifier interface {
	CreateAssignmentNotification(ctx context.Context, in notification.AssignmentInput) (*model.Notification, error)
}

// TaskEvent is the domain record offered to an EventSink after every write.
type TaskEvent struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"taskId"`
	ActorID    string    `json:"actorId"`
	AssigneeID string    `json:"assigneeId,omitempty"`
	At         time.Time `json:"at"`
}

type EventSink interface {
	Publish(ctx context.Context, ev TaskEvent) error
}

type Pipeline struct {
	hub      Broadcaster
	notifier Notifier
	sink     EventSink
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// New wires the pipeline. sink may be nil.
func New(b Broadcaster, n Notifier, sink EventSink, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		hub:      b,
		notifier: n,
		sink:     sink,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TaskCreated runs after a task has been stored.
func (p *Pipeline) TaskCreated(ctx context.Context, t *model.Task, actor model.Actor) error {
	return p.run(ctx, MutationCreate, t, "", actor)
}

// TaskUpdated runs after an update or status change has been stored. prev is
// the assignee the task had before the write.
func (p *Pipeline) TaskUpdated(ctx context.Context, t *model.Task, prev string, actor model.Actor) error {
	return p.run(ctx, MutationUpdate, t, prev, actor)
}

// TaskDeleted only tells the dashboard.
func (p *Pipeline) TaskDeleted(ctx context.Context, taskID string, actor model.Actor) error {
	n := p.hub.BroadcastRooms(events.TaskDeleted{TaskID: taskID}, Rooms(MutationDelete, nil)...)
	p.logger.Debugw("task deleted broadcast", "task_id", taskID, "deliveries", n)
	p.publish(ctx, TaskEvent{Type: "task." + MutationDelete.String(), TaskID: taskID, ActorID: actor.ID, At: p.now()})
	return nil
}

func (p *Pipeline) run(ctx context.Context, m Mutation, t *model.Task, prev string, actor model.Actor) error {
	var ev events.ServerEvent = events.TaskUpdated{Task: t}
	if m == MutationCreate {
		ev = events.TaskCreated{Task: t}
	}
	rooms := Rooms(m, t)
	n := p.hub.BroadcastRooms(ev, rooms...)
	p.logger.Debugw("task broadcast", "event", ev.Name(), "task_id", t.ID, "rooms", rooms, "deliveries", n)

	p.publish(ctx, TaskEvent{
		Type:       "task." + m.String(),
		TaskID:     t.ID,
		ActorID:    actor.ID,
		AssigneeID: t.AssignedToID,
		At:         p.now(),
	})

	if !ShouldNotify(m, prev, t.AssignedToID, actor.ID) {
		return nil
	}
	_, err := p.notifier.CreateAssignmentNotification(ctx, notification.AssignmentInput{
		AssigneeID:     t.AssignedToID,
		TaskID:         t.ID,
		TaskTitle:      t.Title,
		AssignedByID:   actor.ID,
		AssignedByName: actor.Name,
	})
	if err != nil {
		p.logger.Errorw("assignment notification failed", "task_id", t.ID, "user_id", t.AssignedToID, "error", err)
		return err
	}
	p.logger.Infow("assignment notification created", "task_id", t.ID, "user_id", t.AssignedToID, "actor_id", actor.ID)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, ev TaskEvent) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, ev); err != nil {
		p.logger.Warnw("task event not published", "type", ev.Type, "task_id", ev.TaskID, "error", err)
	}
}
