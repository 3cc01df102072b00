package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/auth"
	"github.com/Neeraj110/task-manager-app/internal/hub"
	"github.com/Neeraj110/task-manager-app/internal/metrics"
	"github.com/Neeraj110/task-manager-app/internal/middleware"
	"github.com/Neeraj110/task-manager-app/internal/notification"
	"github.com/Neeraj110/task-manager-app/internal/pipeline"
	"github.com/Neeraj110/task-manager-app/internal/task"
	"github.com/Neeraj110/task-manager-app/internal/ws"
)

type Deps struct {
	Tasks         *task.Service
	Notifications *notification.Service
	Pipeline      *pipeline.Pipeline
	Hub           *hub.Hub
	WS            *ws.Handler
	Verifier      *auth.Verifier
	// RateLimit guards /api when set.
	RateLimit fiber.Handler
	// Gatherer backs /metrics when set.
	Gatherer  prometheus.Gatherer
	ClientURL string
	Logger    *zap.SugaredLogger
}

type Server struct {
	tasks         *task.Service
	notifications *notification.Service
	pipeline      *pipeline.Pipeline
	hub           *hub.Hub
	logger        *zap.SugaredLogger
}

func NewServer(d Deps) *fiber.App {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	app := fiber.New(fiber.Config{
		AppName:               "taskflow",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(d.Logger),
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.Logger))
	if d.ClientURL != "" {
		app.Use(cors.New(cors.Config{AllowOrigins: d.ClientURL, AllowCredentials: true}))
	}

	s := &Server{
		tasks:         d.Tasks,
		notifications: d.Notifications,
		pipeline:      d.Pipeline,
		hub:           d.Hub,
		logger:        d.Logger,
	}

	app.Get("/health", s.health)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(d.Gatherer)))
	}
	if d.WS != nil {
		app.Get("/ws", d.WS.Upgrade(), d.WS.Serve())
	}

	api := app.Group("/api")
	if d.RateLimit != nil {
		api.Use(d.RateLimit)
	}
	api.Use(auth.Middleware(d.Verifier))

	api.Post("/tasks", s.createTask)
	api.Get("/tasks", s.listTasks)
	api.Get("/tasks/:id", s.getTask)
	api.Put("/tasks/:id", s.updateTask)
	api.Patch("/tasks/:id/status", s.updateTaskStatus)
	api.Delete("/tasks/:id", s.deleteTask)

	api.Get("/dashboard/stats", s.dashboardStats)
	api.Get("/dashboard/activity", s.dashboardActivity)
	api.Get("/dashboard/deadlines", s.dashboardDeadlines)
	api.Get("/dashboard/overdue", s.dashboardOverdue)

	api.Get("/notifications", s.listNotifications)
	api.Patch("/notifications/read-all", s.markAllNotificationsRead)
	api.Patch("/notifications/:id/read", s.markNotificationRead)

	api.Get("/presence", s.listPresence)
	api.Get("/presence/:userId", s.userPresence)

	return app
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"connections": s.hub.ConnectionCount(),
		"online":      len(s.hub.ListOnline()),
	})
}

func errorHandler(logger *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := apperr.HTTPStatus(err)
		msg := apperr.PublicMessage(err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			logger.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"success": false, "message": msg})
	}
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}
