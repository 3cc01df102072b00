package hub

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neeraj110/task-manager-app/internal/connection"
	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/metrics"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

func attach(t *testing.T, h *Hub) *connection.Client {
	t.Helper()
	c := connection.NewClient(32)
	h.Attach(c)
	return c
}

// drain returns every frame queued on c, decoded.
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
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name())
	}
	return out
}

func TestRegistry(t *testing.T) {
	t.Run("register and unregister", func(t *testing.T) {
		h := New(nil, nil)
		c1, c2 := attach(t, h), attach(t, h)

		require.True(t, h.Register(c1.ID, "u1", "Ann"))
		require.True(t, h.Register(c2.ID, "u2", "Bob"))
		assert.Equal(t, []string{"u1", "u2"}, h.ListOnline())

		h.Unregister(c1.ID)
		assert.Equal(t, []string{"u2"}, h.ListOnline())
		assert.False(t, h.IsOnline("u1"))
		assert.True(t, h.IsOnline("u2"))
	})

	t.Run("register broadcasts online set to everyone", func(t *testing.T) {
		h := New(nil, nil)
		anon := attach(t, h)
		c1 := attach(t, h)

		h.Register(c1.ID, "u1", "Ann")

		for _, c := range []*connection.Client{anon, c1} {
			evs := drain(t, c)
			require.Len(t, evs, 1)
			assert.Equal(t, events.OnlineUsers{Users: []string{"u1"}}, evs[0])
		}
	})

	t.Run("empty identity is ignored", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)

		assert.False(t, h.Register(c.ID, "", "Ann"))
		assert.Empty(t, h.ListOnline())
		assert.Empty(t, drain(t, c))
		assert.Empty(t, h.RoomsOf(c.ID))
	})

	t.Run("unknown connection is ignored", func(t *testing.T) {
		h := New(nil, nil)
		assert.False(t, h.Register("nope", "u1", "Ann"))
		assert.Empty(t, h.ListOnline())
	})

	t.Run("re-register keeps one entry", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)

		h.Register(c.ID, "u1", "Ann")
		h.Register(c.ID, "u1", "Ann")
		assert.Equal(t, []string{"u1"}, h.ListOnline())
		assert.Equal(t, []string{c.ID}, h.Members(UserRoom("u1")))
	})

	t.Run("switching identity on one connection", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)

		h.Register(c.ID, "u1", "Ann")
		h.Register(c.ID, "u2", "Bob")
		assert.Equal(t, []string{"u2"}, h.ListOnline())
		assert.Equal(t, []string{UserRoom("u2")}, h.RoomsOf(c.ID))
	})

	t.Run("stale disconnect does not evict newer connection", func(t *testing.T) {
		h := New(nil, nil)
		oldConn, newConn := attach(t, h), attach(t, h)

		h.Register(oldConn.ID, "u1", "Ann")
		h.Register(newConn.ID, "u1", "Ann")
		drain(t, newConn)

		h.Unregister(oldConn.ID)
		assert.True(t, h.IsOnline("u1"))
		assert.Empty(t, drain(t, newConn), "no online broadcast when nothing changed")

		// the newer connection still receives unicasts
		n := h.Unicast("u1", events.TaskDeleted{TaskID: "t1"})
		assert.Equal(t, 1, n)
	})

	t.Run("unregister twice is harmless", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)
		h.Register(c.ID, "u1", "Ann")

		h.Unregister(c.ID)
		h.Unregister(c.ID)
		assert.Empty(t, h.ListOnline())
		assert.Equal(t, 0, h.ConnectionCount())
	})

	t.Run("unregister rebroadcasts to the rest", func(t *testing.T) {
		h := New(nil, nil)
		c1, c2 := attach(t, h), attach(t, h)
		h.Register(c1.ID, "u1", "Ann")
		h.Register(c2.ID, "u2", "Bob")
		drain(t, c2)

		h.Unregister(c1.ID)
		evs := drain(t, c2)
		require.Len(t, evs, 1)
		assert.Equal(t, events.OnlineUsers{Users: []string{"u2"}}, evs[0])
	})
}

func TestRooms(t *testing.T) {
	t.Run("join is idempotent", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)

		assert.True(t, h.JoinRoom(c.ID, RoomDashboard))
		assert.False(t, h.JoinRoom(c.ID, RoomDashboard))
		assert.Equal(t, []string{c.ID}, h.Members(RoomDashboard))
	})

	t.Run("leave without join is harmless", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)

		assert.False(t, h.LeaveRoom(c.ID, RoomDashboard))
		assert.Empty(t, h.Members(RoomDashboard))
	})

	t.Run("board presence", func(t *testing.T) {
		h := New(nil, nil)
		x, y := attach(t, h), attach(t, h)
		h.Register(x.ID, "ux", "Xena")
		h.Register(y.ID, "uy", "Yuri")
		drain(t, x)
		drain(t, y)

		room := BoardRoom("42")
		h.JoinRoom(x.ID, room)
		assert.Empty(t, drain(t, x), "no self join notice")

		h.JoinRoom(y.ID, room)
		xs := drain(t, x)
		require.Len(t, xs, 1)
		assert.Equal(t, events.UserJoined{UserID: "uy", UserName: "Yuri"}, xs[0])
		assert.Empty(t, drain(t, y))

		// a repeated join does not announce again
		h.JoinRoom(y.ID, room)
		assert.Empty(t, drain(t, x))

		h.Unregister(y.ID)
		xs = drain(t, x)
		assert.Equal(t, []string{events.EventUserLeft, events.EventOnlineUsers}, names(xs))
		assert.Equal(t, events.UserLeft{UserID: "uy", UserName: "Yuri"}, xs[0])
		assert.Equal(t, []string{x.ID}, h.Members(room))
	})

	t.Run("explicit board leave notifies remaining members", func(t *testing.T) {
		h := New(nil, nil)
		x, y := attach(t, h), attach(t, h)
		h.Register(x.ID, "ux", "Xena")
		h.Register(y.ID, "uy", "Yuri")
		room := BoardRoom("7")
		h.JoinRoom(x.ID, room)
		h.JoinRoom(y.ID, room)
		drain(t, x)
		drain(t, y)

		h.LeaveRoom(y.ID, room)
		xs := drain(t, x)
		require.Len(t, xs, 1)
		assert.Equal(t, events.UserLeft{UserID: "uy", UserName: "Yuri"}, xs[0])
		assert.Empty(t, drain(t, y))
	})

	t.Run("second tab of the same identity is announced once", func(t *testing.T) {
		h := New(nil, nil)
		x, a1, a2 := attach(t, h), attach(t, h), attach(t, h)
		h.Register(x.ID, "X", "Xena")
		h.Register(a1.ID, "A", "Abe")
		h.Register(a2.ID, "A", "Abe")
		room := BoardRoom("42")
		h.JoinRoom(x.ID, room)
		drain(t, x)

		h.JoinRoom(a1.ID, room)
		assert.Equal(t, []events.ServerEvent{events.UserJoined{UserID: "A", UserName: "Abe"}}, drain(t, x))
		h.JoinRoom(a2.ID, room)
		assert.Empty(t, drain(t, x))

		h.Unregister(a1.ID)
		assert.Empty(t, drain(t, x), "A is still on the board through a2")
		assert.ElementsMatch(t, []string{a2.ID, x.ID}, h.Members(room))
		assert.True(t, h.IsOnline("A"))

		h.LeaveRoom(a2.ID, room)
		assert.Equal(t, []events.ServerEvent{events.UserLeft{UserID: "A", UserName: "Abe"}}, drain(t, x))
	})

	t.Run("anonymous board members are silent", func(t *testing.T) {
		h := New(nil, nil)
		x, anon := attach(t, h), attach(t, h)
		h.Register(x.ID, "ux", "Xena")
		drain(t, x)

		room := BoardRoom("1")
		h.JoinRoom(x.ID, room)
		h.JoinRoom(anon.ID, room)
		assert.Empty(t, drain(t, x))
	})

	t.Run("dashboard joins are not announced", func(t *testing.T) {
		h := New(nil, nil)
		x, y := attach(t, h), attach(t, h)
		h.Register(x.ID, "ux", "Xena")
		h.Register(y.ID, "uy", "Yuri")
		h.JoinRoom(x.ID, RoomDashboard)
		drain(t, x)

		h.JoinRoom(y.ID, RoomDashboard)
		assert.Empty(t, drain(t, x))
	})

	t.Run("disconnect empties every room", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)
		h.Register(c.ID, "u1", "Ann")
		h.JoinRoom(c.ID, RoomDashboard)
		h.JoinRoom(c.ID, BoardRoom("9"))

		h.Unregister(c.ID)
		assert.Empty(t, h.Members(RoomDashboard))
		assert.Empty(t, h.Members(BoardRoom("9")))
		assert.Empty(t, h.Members(UserRoom("u1")))
		assert.Nil(t, h.RoomsOf(c.ID))
	})
}

func TestBroadcast(t *testing.T) {
	t.Run("empty room is a no-op", func(t *testing.T) {
		h := New(nil, nil)
		assert.Equal(t, 0, h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "t1"}))
	})

	t.Run("only members receive", func(t *testing.T) {
		h := New(nil, nil)
		in, out := attach(t, h), attach(t, h)
		h.JoinRoom(in.ID, RoomDashboard)

		n := h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "t1"})
		assert.Equal(t, 1, n)
		assert.Equal(t, []events.ServerEvent{events.TaskDeleted{TaskID: "t1"}}, drain(t, in))
		assert.Empty(t, drain(t, out))
	})

	t.Run("per room order matches emission order", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)
		h.JoinRoom(c.ID, RoomDashboard)

		task := &model.Task{ID: "t1", Title: "write docs", Status: model.StatusTodo, Priority: model.PriorityLow}
		h.Broadcast(RoomDashboard, events.TaskCreated{Task: task})
		h.Broadcast(RoomDashboard, events.TaskUpdated{Task: task})
		h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "t1"})

		assert.Equal(t,
			[]string{events.EventTaskCreated, events.EventTaskUpdated, events.EventTaskDeleted},
			names(drain(t, c)))
	})

	t.Run("unicast to offline identity drops silently", func(t *testing.T) {
		h := New(nil, nil)
		assert.Equal(t, 0, h.Unicast("ghost", events.TaskDeleted{TaskID: "t1"}))
	})

	t.Run("slow consumer is skipped and counted", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		h := New(nil, m)

		slow := connection.NewClient(1)
		fast := attach(t, h)
		h.Attach(slow)
		h.JoinRoom(slow.ID, RoomDashboard)
		h.JoinRoom(fast.ID, RoomDashboard)

		assert.Equal(t, 2, h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "a"}))
		assert.Equal(t, 1, h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "b"}))
		assert.Len(t, drain(t, fast), 2)
		assert.Len(t, drain(t, slow), 1)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.DroppedEvents))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.Broadcasts.WithLabelValues(events.EventTaskDeleted)))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.Connections))
	})

	t.Run("closed connection is skipped", func(t *testing.T) {
		h := New(nil, nil)
		c := attach(t, h)
		h.JoinRoom(c.ID, RoomDashboard)
		c.Close()

		assert.Equal(t, 0, h.Broadcast(RoomDashboard, events.TaskDeleted{TaskID: "t1"}))
	})

	t.Run("union of rooms delivers one copy", func(t *testing.T) {
		h := New(nil, nil)
		a, c, viewer := attach(t, h), attach(t, h), attach(t, h)
		h.Register(a.ID, "A", "Ann")
		h.Register(c.ID, "C", "Cid")
		h.JoinRoom(a.ID, RoomDashboard)
		h.JoinRoom(viewer.ID, RoomDashboard)
		drain(t, a)
		drain(t, c)
		drain(t, viewer)

		n := h.BroadcastRooms(events.TaskDeleted{TaskID: "t1"}, RoomDashboard, UserRoom("A"), UserRoom("C"), UserRoom("A"))
		assert.Equal(t, 3, n)
		assert.Len(t, drain(t, a), 1)
		assert.Len(t, drain(t, c), 1)
		assert.Len(t, drain(t, viewer), 1)
	})

	t.Run("broadcast all reaches anonymous sessions", func(t *testing.T) {
		h := New(nil, nil)
		a, b := attach(t, h), attach(t, h)
		assert.Equal(t, 2, h.BroadcastAll(events.OnlineUsers{}))
		assert.Len(t, drain(t, a), 1)
		assert.Len(t, drain(t, b), 1)
	})
}

func TestClose(t *testing.T) {
	h := New(nil, nil)
	c := attach(t, h)
	h.Register(c.ID, "u1", "Ann")
	h.JoinRoom(c.ID, RoomDashboard)

	h.Close()
	assert.Equal(t, 0, h.ConnectionCount())
	assert.Empty(t, h.ListOnline())
	assert.Empty(t, h.Members(RoomDashboard))
}
