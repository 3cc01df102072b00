// Package ws is the websocket edge: it upgrades requests, decodes client
// events and drives the hub, and pumps queued live events back out.
package ws

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/auth"
	"github.com/Neeraj110/task-manager-app/internal/connection"
	"github.com/Neeraj110/task-manager-app/internal/hub"
)

const localSubject = "ws_subject"

type Options struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
	SendBuffer     int
	// RateLimit caps inbound client events per second per connection.
	RateLimit    float64
	RequireToken bool
}

func (o *Options) setDefaults() {
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.PongWait <= o.PingInterval {
		o.PongWait = 60 * time.Second
	}
	if o.WriteDeadline <= 0 {
		o.WriteDeadline = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 65536
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = connection.DefaultSendBuffer
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 20
	}
}

type Handler struct {
	hub      *hub.Hub
	verifier *auth.Verifier
	opts     Options
	logger   *zap.SugaredLogger
}

// NewHandler builds the websocket edge. verifier is only consulted when
// opts.RequireToken is set.
func NewHandler(h *hub.Hub, v *auth.Verifier, opts Options, logger *zap.SugaredLogger) *Handler {
	opts.setDefaults()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{hub: h, verifier: v, opts: opts, logger: logger}
}

// Upgrade rejects plain HTTP requests and, when tokens are required,
// requests without a valid ?token=.
func (h *Handler) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if h.opts.RequireToken {
			tok := c.Query("token")
			if tok == "" || h.verifier == nil {
				return apperr.ErrUnauthorized
			}
			claims, err := h.verifier.Verify(tok)
			if err != nil {
				return err
			}
			c.Locals(localSubject, claims.Identity())
		}
		return c.Next()
	}
}

// Serve runs one connection until the peer goes away or stops answering
// pings, then performs disconnect cleanup.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(h.serve, websocket.Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	})
}

func (h *Handler) serve(c *websocket.Conn) {
	subject, _ := c.Locals(localSubject).(string)
	client := connection.NewClient(h.opts.SendBuffer)
	s := h.newSession(client, subject)

	h.hub.Attach(client)
	h.logger.Infow("ws connected", "conn_id", client.ID, "ip", c.RemoteAddr().String())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(c, client)
	}()

	h.readPump(c, s)

	h.hub.Unregister(client.ID)
	client.Close()
	<-writerDone
	h.logger.Infow("ws disconnected", "conn_id", client.ID, "duration", time.Since(client.ConnectedAt))
}

func (h *Handler) newSession(client *connection.Client, subject string) *session {
	burst := int(h.opts.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return &session{
		client:  client,
		subject: subject,
		limiter: rate.NewLimiter(rate.Limit(h.opts.RateLimit), burst),
	}
}

func (h *Handler) readPump(c *websocket.Conn, s *session) {
	c.SetReadLimit(h.opts.MaxMessageSize)
	_ = c.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("ws read error", "conn_id", s.client.ID, "error", err)
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		if mt != websocket.TextMessage {
			continue
		}
		h.handleFrame(s, msg)
	}
}

func (h *Handler) writePump(c *websocket.Conn, client *connection.Client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case b, ok := <-client.Send:
			_ = c.SetWriteDeadline(time.Now().Add(h.opts.WriteDeadline))
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
				h.logger.Warnw("ws write failed", "conn_id", client.ID, "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.WriteDeadline)); err != nil {
				h.logger.Debugw("ws ping failed", "conn_id", client.ID, "error", err)
				_ = c.Close()
				return
			}
		}
	}
}
