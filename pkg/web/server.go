// Package web serves the presentation analysis API: uploads, history,
// statistics and live progress over websockets.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/hub"
	"github.com/gulaysahinn/pitchmate-pro/pkg/inference"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
	"github.com/gulaysahinn/pitchmate-pro/pkg/video"
)

// Pipeline analyzes one recorded presentation.
// *session.Combiner satisfies it.
type Pipeline interface {
	Run(ctx context.Context, id, videoPath, audioPath string) *session.Report
}

// Commenter writes the coaching commentary for a finished report.
// *inference.Commentator satisfies it.
type Commenter interface {
	Comment(ctx context.Context, r *session.Report) string
}

// Coach answers questions about a presentation.
// *inference.Commentator satisfies it.
type Coach interface {
	Ask(ctx context.Context, q inference.Question) string
}

// Extractor pulls the audio track out of an uploaded video.
type Extractor func(ctx context.Context, videoPath string) (*video.Extracted, error)

// Config configures the HTTP server
type Config struct {
	Addr          string
	UploadDir     string
	MaxConcurrent int  // Analyses allowed to run at once
	BodyLimit     int  // Maximum upload size in bytes
	KeepUploads   bool // Keep uploaded videos and serve them under /uploads
	Extract       video.ExtractConfig
	Logger        *slog.Logger
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		UploadDir:     "uploads/videos",
		MaxConcurrent: 2,
		BodyLimit:     512 << 20,
		Extract:       video.DefaultExtractConfig(),
	}
}

// Deps are the collaborators the handlers call
type Deps struct {
	Pipeline Pipeline
	Store    *store.Store

	// Optional
	Commenter Commenter
	Coach     Coach     // /api/chat answers 503 when nil
	Hub       *hub.Hub  // Created when nil
	Extract   Extractor // ffmpeg extraction when nil
}

// Server is the analysis API server
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	pipeline  Pipeline
	commenter Commenter
	coach     Coach
	store     *store.Store
	hub       *hub.Hub
	extract   Extractor

	// Counting semaphore for running analyses
	slots chan struct{}
}

// New creates the server and registers its routes
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Pipeline == nil {
		return nil, errors.New("web: pipeline required")
	}
	if deps.Store == nil {
		return nil, errors.New("web: store required")
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("web: max concurrent analyses must be positive, got %d", cfg.MaxConcurrent)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("web: create upload dir: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		pipeline:  deps.Pipeline,
		commenter: deps.Commenter,
		coach:     deps.Coach,
		store:     deps.Store,
		hub:       deps.Hub,
		extract:   deps.Extract,
		slots:     make(chan struct{}, cfg.MaxConcurrent),
	}
	if s.logger == nil {
		s.logger = log.Component("web")
	}
	if s.hub == nil {
		s.hub = hub.New("progress")
	}
	if s.extract == nil {
		extractCfg := cfg.Extract
		s.extract = func(ctx context.Context, videoPath string) (*video.Extracted, error) {
			return video.ExtractAudio(ctx, extractCfg, videoPath)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               "PitchMate Pro",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	if cfg.KeepUploads {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/analysis", s.handleAnalyze)
	api.Get("/presentations", s.handleList)
	api.Get("/presentations/:id", s.handleGet)
	api.Delete("/presentations/:id", s.handleDelete)
	api.Get("/stats", s.handleStats)
	api.Post("/chat", s.handleChat)

	api.Get("/projects", s.handleListProjects)
	api.Post("/projects", s.handleCreateProject)
	api.Get("/projects/:id", s.handleGetProject)
	api.Put("/projects/:id", s.handleUpdateProject)
	api.Delete("/projects/:id", s.handleDeleteProject)
	api.Get("/projects/:id/presentations", s.handleProjectPresentations)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress", websocket.New(s.handleProgressWS))

	s.app = app
	return s, nil
}

// ProgressPublisher returns a progress callback that forwards events to the
// websocket subscribers of each session.
func ProgressPublisher(h *hub.Hub) session.ProgressFunc {
	return func(p session.Progress) {
		if err := h.Publish(p.SessionID, p); err != nil {
			log.Warn("progress publish failed", "session", p.SessionID, "error", err)
		}
	}
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the progress hub
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Run listens on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the progress hub and serves HTTP on ln until ctx is done.
// Call it at most once per Server.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)

	s.logger.Info("listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listener(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}
