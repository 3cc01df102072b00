package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/auth"
	"github.com/Neeraj110/task-manager-app/internal/model"
	"github.com/Neeraj110/task-manager-app/internal/task"
)

func badBody(err error) error {
	return fmt.Errorf("%w: invalid body: %v", apperr.ErrBadRequest, err)
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var in task.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(err)
	}
	actor := s.tasks.ResolveActor(c.UserContext(), auth.ActorFrom(c))
	t, err := s.tasks.Create(c.UserContext(), actor, in)
	if err != nil {
		return err
	}
	if err := s.pipeline.TaskCreated(c.UserContext(), t, actor); err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, t)
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	q := task.ListQuery{
		Created:  c.QueryBool("created"),
		Assigned: c.QueryBool("assigned"),
		Status:   model.Status(c.Query("status")),
		Priority: model.Priority(c.Query("priority")),
		SortBy:   c.Query("sortBy", task.SortCreatedAt),
	}
	tasks, err := s.tasks.List(c.UserContext(), auth.ActorFrom(c), q)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, tasks)
}

func (s *Server) getTask(c *fiber.Ctx) error {
	t, err := s.tasks.Get(c.UserContext(), auth.ActorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, t)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	var in task.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(err)
	}
	actor := s.tasks.ResolveActor(c.UserContext(), auth.ActorFrom(c))
	t, prev, err := s.tasks.Update(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return err
	}
	if err := s.pipeline.TaskUpdated(c.UserContext(), t, prev, actor); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, t)
}

func (s *Server) updateTaskStatus(c *fiber.Ctx) error {
	var body struct {
		Status model.Status `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(err)
	}
	actor := s.tasks.ResolveActor(c.UserContext(), auth.ActorFrom(c))
	t, prev, err := s.tasks.UpdateStatus(c.UserContext(), actor, c.Params("id"), body.Status)
	if err != nil {
		return err
	}
	if err := s.pipeline.TaskUpdated(c.UserContext(), t, prev, actor); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, t)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	actor := s.tasks.ResolveActor(c.UserContext(), auth.ActorFrom(c))
	id := c.Params("id")
	if err := s.tasks.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	if err := s.pipeline.TaskDeleted(c.UserContext(), id, actor); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id})
}
