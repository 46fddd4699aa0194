package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
)

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// projectError maps store errors to responses
func (s *Server) projectError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, store.ErrProjectNotFound):
		return fail(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, store.ErrInvalidProject):
		return fail(c, fiber.StatusBadRequest, "title is required")
	}
	s.logger.Error(op+" failed", "error", err)
	return fail(c, fiber.StatusInternalServerError, "could not "+op)
}

// handleListProjects returns every project with its session count and
// average score
func (s *Server) handleListProjects(c *fiber.Ctx) error {
	projects, err := s.store.ListProjects(c.UserContext())
	if err != nil {
		return s.projectError(c, "list projects", err)
	}
	return c.JSON(projects)
}

func (s *Server) handleCreateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project")
	}
	p := store.Project{Title: req.Title, Description: req.Description}
	if err := s.store.CreateProject(c.UserContext(), &p); err != nil {
		return s.projectError(c, "create project", err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (s *Server) handleGetProject(c *fiber.Ctx) error {
	p, err := s.store.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.projectError(c, "load project", err)
	}
	return c.JSON(p)
}

func (s *Server) handleUpdateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project")
	}
	p, err := s.store.UpdateProject(c.UserContext(), c.Params("id"), req.Title, req.Description)
	if err != nil {
		return s.projectError(c, "update project", err)
	}
	return c.JSON(p)
}

// handleDeleteProject removes a project and every presentation in it
func (s *Server) handleDeleteProject(c *fiber.Ctx) error {
	if err := s.store.DeleteProject(c.UserContext(), c.Params("id")); err != nil {
		return s.projectError(c, "delete project", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleProjectPresentations(c *fiber.Ctx) error {
	list, err := s.store.ListByProject(c.UserContext(), c.Params("id"), listLimit(c))
	if err != nil {
		return s.projectError(c, "list presentations", err)
	}
	return c.JSON(list)
}
