// Package client is a realtime client for the task server. It keeps the
// online list, the live notification feed and a board roster, and reports
// which queries a UI should refetch.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/events"
)

type Options struct {
	// URL of the websocket endpoint, e.g. ws://localhost:5000/ws.
	URL            string
	Token          string
	UserID         string
	UserName       string
	ReconnectDelay time.Duration
	Logger         *zap.SugaredLogger
}

type Handlers struct {
	// OnEvent sees every decoded server event after it was applied.
	OnEvent func(ev events.ServerEvent)
	// Invalidate receives query keys to refetch.
	Invalidate func(keys ...string)
}

type Client struct {
	opts     Options
	handlers Handlers
	dialer   *websocket.Dialer
	state    *State

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(opts Options, h Handlers) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Client{
		opts:     opts,
		handlers: h,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:    NewState(),
	}
}

func (c *Client) State() *State { return c.state }

// Run keeps a connection open until ctx is done, reconnecting after
// failures. Every connect registers and joins the dashboard again.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.opts.Logger.Warnw("realtime connection lost", "error", err, "retry_in", c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

func (c *Client) endpoint() (string, http.Header, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", nil, fmt.Errorf("parse url: %w", err)
	}
	hdr := http.Header{}
	if c.opts.Token != "" {
		q := u.Query()
		q.Set("token", c.opts.Token)
		u.RawQuery = q.Encode()
		hdr.Set("Authorization", "Bearer "+c.opts.Token)
	}
	return u.String(), hdr, nil
}

func (c *Client) runOnce(ctx context.Context) error {
	target, hdr, err := c.endpoint()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, hdr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	if err := c.handshake(); err != nil {
		return err
	}
	c.opts.Logger.Infow("realtime connected", "url", c.opts.URL, "user_id", c.opts.UserID)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := events.DecodeServer(msg)
		if err != nil {
			c.opts.Logger.Debugw("unknown server frame", "error", err)
			continue
		}
		keys := c.state.Apply(ev)
		if c.handlers.OnEvent != nil {
			c.handlers.OnEvent(ev)
		}
		if len(keys) > 0 && c.handlers.Invalidate != nil {
			c.handlers.Invalidate(keys...)
		}
	}
}

func (c *Client) handshake() error {
	if c.opts.UserID != "" {
		if err := c.send(events.Register{UserID: c.opts.UserID, UserName: c.opts.UserName}); err != nil {
			return err
		}
	}
	if err := c.send(events.JoinDashboard{}); err != nil {
		return err
	}
	if board := c.state.currentBoard(); board != "" {
		return c.send(events.JoinBoard{BoardID: board})
	}
	return nil
}

var ErrNotConnected = errors.New("client: not connected")

func (c *Client) send(ev events.ClientEvent) error {
	b, err := events.EncodeClient(ev)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// JoinBoard switches the board roster to id. The join is replayed after a
// reconnect.
func (c *Client) JoinBoard(id string) error {
	if prev := c.state.currentBoard(); prev != "" && prev != id {
		_ = c.send(events.LeaveBoard{BoardID: prev})
	}
	c.state.setBoard(id)
	err := c.send(events.JoinBoard{BoardID: id})
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

func (c *Client) LeaveBoard() error {
	prev := c.state.currentBoard()
	c.state.setBoard("")
	if prev == "" {
		return nil
	}
	err := c.send(events.LeaveBoard{BoardID: prev})
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}
