package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neeraj110/task-manager-app/internal/connection"
	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/hub"
	"github.com/Neeraj110/task-manager-app/internal/model"
	"github.com/Neeraj110/task-manager-app/internal/notification"
)

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name             string
		m                Mutation
		prev, next, actr string
		want             bool
	}{
		{"create assigned to someone else", MutationCreate, "", "A", "C", true},
		{"create assigned to self", MutationCreate, "", "C", "C", false},
		{"create unassigned", MutationCreate, "", "", "C", false},
		{"update reassigns", MutationUpdate, "A", "B", "C", true},
		{"update first assignment", MutationUpdate, "", "B", "C", true},
		{"update unchanged assignee", MutationUpdate, "A", "A", "C", false},
		{"update assigns actor", MutationUpdate, "A", "C", "C", false},
		{"update clears assignee", MutationUpdate, "A", "", "C", false},
		{"delete", MutationDelete, "A", "B", "C", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(tt.m, tt.prev, tt.next, tt.actr))
		})
	}
}

func TestRooms(t *testing.T) {
	assert.Equal(t,
		[]string{"dashboard", "user:A", "user:C"},
		Rooms(MutationCreate, &model.Task{CreatorID: "C", AssignedToID: "A"}))
	assert.Equal(t,
		[]string{"dashboard", "user:C"},
		Rooms(MutationUpdate, &model.Task{CreatorID: "C", AssignedToID: "C"}))
	assert.Equal(t,
		[]string{"dashboard", "user:C"},
		Rooms(MutationCreate, &model.Task{CreatorID: "C"}))
	assert.Equal(t,
		[]string{"dashboard"},
		Rooms(MutationDelete, &model.Task{CreatorID: "C", AssignedToID: "A"}))
}

type recordingSink struct {
	got []TaskEvent
	err error
}

func (s *recordingSink) Publish(_ context.Context, ev TaskEvent) error {
	s.got = append(s.got, ev)
	return s.err
}

type fixture struct {
	hub       *hub.Hub
	store     *notification.MemoryStore
	pipeline  *Pipeline
	sink      *recordingSink
	dashboard *connection.Client
	a, b, c   *connection.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := hub.New(nil, nil)
	store := notification.NewMemoryStore()
	svc := notification.NewService(store, h, nil, nil, nil)
	sink := &recordingSink{}

	f := &fixture{
		hub:       h,
		store:     store,
		pipeline:  New(h, svc, sink, nil),
		sink:      sink,
		dashboard: connection.NewClient(64),
		a:         connection.NewClient(64),
		b:         connection.NewClient(64),
		c:         connection.NewClient(64),
	}
	for _, cl := range []*connection.Client{f.dashboard, f.a, f.b, f.c} {
		h.Attach(cl)
	}
	h.JoinRoom(f.dashboard.ID, hub.RoomDashboard)
	h.Register(f.a.ID, "A", "Abe")
	h.Register(f.b.ID, "B", "Bea")
	h.Register(f.c.ID, "C", "Cara")
	for _, cl := range []*connection.Client{f.dashboard, f.a, f.b, f.c} {
		drain(t, cl)
	}
	return f
}

func drain(t *testing.T, c *connection.Client) []events.ServerEvent {
	t.Helper()
	var out []events.ServerEvent
	for {
		select {
		case raw := <-c.Send:
			ev, err := events.DecodeServer(raw)
			require.NoError(t, err)
			out = append(out, ev)
		default:
			return out
		}
	}
}

func names(evs []events.ServerEvent) []string {
	out := []string{}
	for _, ev := range evs {
		out = append(out, ev.Name())
	}
	return out
}

func (f *fixture) notificationsFor(t *testing.T, userID string) []*model.Notification {
	t.Helper()
	list, err := f.store.ListByUser(context.Background(), userID, 100)
	require.NoError(t, err)
	return list
}

var cara = model.Actor{ID: "C", Name: "Cara"}

func TestTaskCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("assignee other than creator", func(t *testing.T) {
		f := newFixture(t)
		task := &model.Task{ID: "T", Title: "Fix login", CreatorID: "C", AssignedToID: "A"}

		require.NoError(t, f.pipeline.TaskCreated(ctx, task, cara))

		assert.Len(t, f.notificationsFor(t, "A"), 1)
		assert.Empty(t, f.notificationsFor(t, "C"))

		assert.Equal(t, []string{events.EventTaskCreated}, names(drain(t, f.dashboard)))
		assert.Equal(t, []string{events.EventTaskCreated, events.EventNotificationAssignment}, names(drain(t, f.a)))
		assert.Equal(t, []string{events.EventTaskCreated}, names(drain(t, f.c)))
		assert.Empty(t, drain(t, f.b))

		require.Len(t, f.sink.got, 1)
		assert.Equal(t, "task.created", f.sink.got[0].Type)
		assert.Equal(t, "A", f.sink.got[0].AssigneeID)
	})

	t.Run("self assigned", func(t *testing.T) {
		f := newFixture(t)
		task := &model.Task{ID: "T", Title: "Fix login", CreatorID: "C", AssignedToID: "C"}

		require.NoError(t, f.pipeline.TaskCreated(ctx, task, cara))

		assert.Empty(t, f.notificationsFor(t, "C"))
		assert.Equal(t, []string{events.EventTaskCreated}, names(drain(t, f.dashboard)))
		assert.Equal(t, []string{events.EventTaskCreated}, names(drain(t, f.c)))
	})

	t.Run("creator watching the dashboard gets one copy", func(t *testing.T) {
		f := newFixture(t)
		f.hub.JoinRoom(f.c.ID, hub.RoomDashboard)
		task := &model.Task{ID: "T", CreatorID: "C", AssignedToID: "A"}

		require.NoError(t, f.pipeline.TaskCreated(ctx, task, cara))
		assert.Len(t, drain(t, f.c), 1)
	})
}

func TestTaskUpdated(t *testing.T) {
	ctx := context.Background()

	t.Run("reassignment notifies new assignee", func(t *testing.T) {
		f := newFixture(t)
		task := &model.Task{ID: "T", Title: "Fix login", CreatorID: "C", AssignedToID: "B"}

		require.NoError(t, f.pipeline.TaskUpdated(ctx, task, "A", cara))

		assert.Len(t, f.notificationsFor(t, "B"), 1)
		assert.Empty(t, f.notificationsFor(t, "A"))
		assert.Equal(t, []string{events.EventTaskUpdated, events.EventNotificationAssignment}, names(drain(t, f.b)))
		// the previous assignee is not a target any more
		assert.Empty(t, drain(t, f.a))
		assert.Equal(t, []string{events.EventTaskUpdated}, names(drain(t, f.dashboard)))
	})

	t.Run("other field change", func(t *testing.T) {
		f := newFixture(t)
		task := &model.Task{ID: "T", Title: "Renamed", CreatorID: "C", AssignedToID: "A"}

		require.NoError(t, f.pipeline.TaskUpdated(ctx, task, "A", cara))

		assert.Empty(t, f.notificationsFor(t, "A"))
		assert.Equal(t, []string{events.EventTaskUpdated}, names(drain(t, f.a)))
		assert.Equal(t, []string{events.EventTaskUpdated}, names(drain(t, f.c)))
	})

	t.Run("assignee takes the task themselves", func(t *testing.T) {
		f := newFixture(t)
		abe := model.Actor{ID: "A", Name: "Abe"}
		task := &model.Task{ID: "T", CreatorID: "C", AssignedToID: "A"}

		require.NoError(t, f.pipeline.TaskUpdated(ctx, task, "", abe))
		assert.Empty(t, f.notificationsFor(t, "A"))
	})
}

func TestTaskDeleted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pipeline.TaskDeleted(context.Background(), "T", cara))

	got := drain(t, f.dashboard)
	require.Len(t, got, 1)
	assert.Equal(t, events.TaskDeleted{TaskID: "T"}, got[0])
	assert.Empty(t, drain(t, f.a))
	assert.Empty(t, drain(t, f.c))
	assert.Empty(t, f.notificationsFor(t, "A"))
}

type brokenNotifier struct{}

func (brokenNotifier) CreateAssignmentNotification(context.Context, notification.AssignmentInput) (*model.Notification, error) {
	return nil, errors.New("store unreachable")
}

func TestFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("sink failure is swallowed", func(t *testing.T) {
		f := newFixture(t)
		f.sink.err = errors.New("broker down")
		task := &model.Task{ID: "T", CreatorID: "C", AssignedToID: "A"}

		require.NoError(t, f.pipeline.TaskCreated(ctx, task, cara))
		assert.Len(t, f.notificationsFor(t, "A"), 1)
	})

	t.Run("notification failure surfaces after broadcast", func(t *testing.T) {
		h := hub.New(nil, nil)
		dash := connection.NewClient(8)
		h.Attach(dash)
		h.JoinRoom(dash.ID, hub.RoomDashboard)
		p := New(h, brokenNotifier{}, nil, nil)

		err := p.TaskCreated(ctx, &model.Task{ID: "T", CreatorID: "C", AssignedToID: "A"}, cara)
		assert.Error(t, err)
		assert.Equal(t, []string{events.EventTaskCreated}, names(drain(t, dash)))
	})
}
