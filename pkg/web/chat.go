package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gulaysahinn/pitchmate-pro/pkg/inference"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
)

const maxQuestionLen = 2000

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string `json:"message"`

	// Free-form context, used when PresentationID is empty
	Context        string     `json:"context"`
	PresentationID string     `json:"presentation_id"`
	History        []chatTurn `json:"history"`
}

// handleChat answers a coaching question, optionally about a stored
// presentation
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.coach == nil {
		return fail(c, fiber.StatusServiceUnavailable, "coach is not configured")
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid chat request")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return fail(c, fiber.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxQuestionLen {
		return fail(c, fiber.StatusRequestEntityTooLarge, "message is too long")
	}

	q := inference.Question{Text: req.Message, Background: req.Context}
	if req.PresentationID != "" {
		p, err := s.store.Get(c.UserContext(), req.PresentationID)
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "presentation not found")
		}
		if err != nil {
			s.logger.Error("get presentation failed", "error", err)
			return fail(c, fiber.StatusInternalServerError, "could not load presentation")
		}
		q.Background = presentationFacts(p)
	}
	for _, t := range req.History {
		switch t.Role {
		case string(inference.RoleUser):
			q.History = append(q.History, inference.NewUserMessage(t.Content))
		case string(inference.RoleAssistant):
			q.History = append(q.History, inference.NewAssistantMessage(t.Content))
		}
	}

	return c.JSON(fiber.Map{
		"response": s.coach.Ask(c.UserContext(), q),
	})
}

// presentationFacts renders a stored presentation for the coach. Records
// without a full report fall back to their headline columns.
func presentationFacts(p *store.Presentation) string {
	var r session.Report
	if len(p.Report) > 0 && json.Unmarshal(p.Report, &r) == nil {
		return inference.Facts(&r)
	}
	return fmt.Sprintf("Pace: %d words/min\nFiller words: %d\nEye contact: %.1f/100\nBody language: %.1f/100\nOverall: %.1f/100",
		p.WPM, p.FillerCount, p.EyeContactScore, p.BodyLanguageScore, p.OverallScore)
}
