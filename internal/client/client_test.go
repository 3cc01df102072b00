package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/hub"
	"github.com/Neeraj110/task-manager-app/internal/model"
	"github.com/Neeraj110/task-manager-app/internal/ws"
)

func startServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.New(nil, nil)
	wsh := ws.NewHandler(h, nil, ws.Options{PingInterval: time.Second, PongWait: 3 * time.Second}, nil)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", wsh.Upgrade(), wsh.Serve())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return h, "ws://" + ln.Addr().String() + "/ws"
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) add(keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

func (r *keyRecorder) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k == key {
			return true
		}
	}
	return false
}

func TestClientEndToEnd(t *testing.T) {
	h, url := startServer(t)

	rec := &keyRecorder{}
	c := New(Options{URL: url, UserID: "u1", UserName: "Ann", ReconnectDelay: 50 * time.Millisecond},
		Handlers{Invalidate: rec.add})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return h.IsOnline("u1") && c.State().IsOnline("u1")
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(h.Members(hub.RoomDashboard)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	h.Broadcast(hub.RoomDashboard, events.TaskCreated{Task: &model.Task{ID: "t1", Title: "Fix login"}})
	require.Eventually(t, func() bool { return rec.has(KeyTasks) }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, c.JoinBoard("42"))
	require.Eventually(t, func() bool {
		return len(h.Members(hub.BoardRoom("42"))) == 1
	}, 5*time.Second, 20*time.Millisecond)

	h.Unicast("u1", events.AssignmentNotification{TaskID: "t1", TaskTitle: "Fix login", AssignedByName: "Cara"})
	require.Eventually(t, func() bool {
		return len(c.State().Snapshot().Notifications) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}
	require.Eventually(t, func() bool { return !h.IsOnline("u1") }, 5*time.Second, 20*time.Millisecond)
	assert.Empty(t, h.Members(hub.BoardRoom("42")))
}

func TestJoinBoardOffline(t *testing.T) {
	c := New(Options{URL: "ws://127.0.0.1:1/ws"}, Handlers{})
	require.NoError(t, c.JoinBoard("42"))
	assert.Equal(t, "42", c.State().Snapshot().Board)
	require.NoError(t, c.LeaveBoard())
	assert.Equal(t, "", c.State().Snapshot().Board)
}
