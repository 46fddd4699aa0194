package web

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/gulaysahinn/pitchmate-pro/pkg/hub"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
	"github.com/gulaysahinn/pitchmate-pro/pkg/video"
)

// Upload extensions accepted by /api/analysis
var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"analyses":  len(s.slots),
		"listeners": s.hub.ClientCount(),
	})
}

// handleAnalyze stores the uploaded video, analyzes it, asks for commentary
// and persists the result. Clients that want live progress send their own
// session_id form field and subscribe to /ws/progress first.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "multipart field \"file\" is required")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !videoExtensions[ext] {
		return fail(c, fiber.StatusUnsupportedMediaType, "unsupported video type "+ext)
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	default:
		c.Set(fiber.HeaderRetryAfter, "10")
		return fail(c, fiber.StatusTooManyRequests, "too many analyses in progress")
	}

	projectID := c.FormValue("project_id")
	if projectID != "" {
		if _, err := s.store.GetProject(c.UserContext(), projectID); err != nil {
			if errors.Is(err, store.ErrProjectNotFound) {
				return fail(c, fiber.StatusNotFound, "project not found")
			}
			s.logger.Error("get project failed", "error", err)
			return fail(c, fiber.StatusInternalServerError, "could not load project")
		}
	}

	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := s.logger.With("session", sessionID)

	videoPath := filepath.Join(s.cfg.UploadDir, uuid.NewString()+ext)
	if err := c.SaveFile(fh, videoPath); err != nil {
		logger.Error("save upload failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not store upload")
	}
	if !s.cfg.KeepUploads {
		defer os.Remove(videoPath)
	}

	ctx := c.UserContext()
	start := time.Now()

	var audioPath string
	audio, err := s.extract(ctx, videoPath)
	switch {
	case err == nil:
		audioPath = audio.Path
		defer audio.Cleanup()
	case errors.Is(err, video.ErrNoAudioTrack):
		logger.Info("upload has no audio track")
	default:
		logger.Warn("audio extraction failed, analyzing video only", "error", err)
	}

	report := s.pipeline.Run(ctx, sessionID, videoPath, audioPath)

	var commentary string
	if s.commenter != nil {
		commentary = s.commenter.Comment(ctx, report)
	}

	p, err := store.FromReport(report, commentary)
	if err != nil {
		logger.Error("encode report failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not encode report")
	}
	p.ProjectID = projectID
	if s.cfg.KeepUploads {
		p.VideoPath = "/uploads/" + filepath.Base(videoPath)
	}
	if err := s.store.Save(ctx, &p); err != nil {
		logger.Error("save presentation failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not save presentation")
	}

	logger.Info("analysis stored",
		"presentation", p.ID,
		"overall", p.OverallScore,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return c.Status(fiber.StatusCreated).JSON(p)
}

func listLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return limit
}

// handleList returns stored presentations, newest first
func (s *Server) handleList(c *fiber.Ctx) error {
	list, err := s.store.List(c.UserContext(), listLimit(c))
	if err != nil {
		s.logger.Error("list presentations failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not list presentations")
	}
	return c.JSON(list)
}

// handleGet returns one presentation with its full report
func (s *Server) handleGet(c *fiber.Ctx) error {
	p, err := s.store.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "presentation not found")
	}
	if err != nil {
		s.logger.Error("get presentation failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not load presentation")
	}
	return c.JSON(p)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	err := s.store.Delete(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "presentation not found")
	}
	if err != nil {
		s.logger.Error("delete presentation failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not delete presentation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleStats returns aggregate scores over every presentation
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.Stats(c.UserContext())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not compute stats")
	}
	return c.JSON(stats)
}

// handleProgressWS streams progress events of one session (?session=ID),
// or of every session when the parameter is absent
func (s *Server) handleProgressWS(c *websocket.Conn) {
	hub.NewClient(s.hub, c, c.Query("session")).Run()
}
