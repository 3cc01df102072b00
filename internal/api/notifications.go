package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Neeraj110/task-manager-app/internal/auth"
	"github.com/Neeraj110/task-manager-app/internal/notification"
)

func (s *Server) listNotifications(c *fiber.Ctx) error {
	user := auth.ActorFrom(c).ID
	limit := c.QueryInt("limit", notification.DefaultPageSize)

	list, err := s.notifications.ListForUser(c.UserContext(), user, limit)
	if err != nil {
		return err
	}
	unread, err := s.notifications.UnreadCount(c.UserContext(), user)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"notifications": list, "unreadCount": unread})
}

func (s *Server) markNotificationRead(c *fiber.Ctx) error {
	n, err := s.notifications.MarkRead(c.UserContext(), c.Params("id"), auth.ActorFrom(c).ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, n)
}

func (s *Server) markAllNotificationsRead(c *fiber.Ctx) error {
	changed, err := s.notifications.MarkAllRead(c.UserContext(), auth.ActorFrom(c).ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"updated": changed})
}
