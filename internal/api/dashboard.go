package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Neeraj110/task-manager-app/internal/auth"
)

func (s *Server) dashboardStats(c *fiber.Ctx) error {
	st, err := s.tasks.Stats(c.UserContext(), auth.ActorFrom(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, st)
}

func (s *Server) dashboardActivity(c *fiber.Ctx) error {
	activities, err := s.tasks.Activity(c.UserContext(), auth.ActorFrom(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"activities": activities})
}

func (s *Server) dashboardDeadlines(c *fiber.Ctx) error {
	deadlines, err := s.tasks.Deadlines(c.UserContext(), auth.ActorFrom(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deadlines": deadlines})
}

func (s *Server) dashboardOverdue(c *fiber.Ctx) error {
	tasks, err := s.tasks.Overdue(c.UserContext(), auth.ActorFrom(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"tasks": tasks, "count": len(tasks)})
}
