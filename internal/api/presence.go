package api

import "github.com/gofiber/fiber/v2"

func (s *Server) listPresence(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, s.hub.ListOnline())
}

func (s *Server) userPresence(c *fiber.Ctx) error {
	id := c.Params("userId")
	return ok(c, fiber.StatusOK, fiber.Map{"userId": id, "online": s.hub.IsOnline(id)})
}
