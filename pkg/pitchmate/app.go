// Package pitchmate assembles the analysis pipeline from configuration and
// runs it for the command line and the HTTP server.
package pitchmate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gulaysahinn/pitchmate-pro/internal/config"
	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
	"github.com/gulaysahinn/pitchmate-pro/pkg/debug"
	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/hub"
	"github.com/gulaysahinn/pitchmate-pro/pkg/inference"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
	"github.com/gulaysahinn/pitchmate-pro/pkg/speech"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking/detection"
	"github.com/gulaysahinn/pitchmate-pro/pkg/video"
	"github.com/gulaysahinn/pitchmate-pro/pkg/web"
)

// ErrNoStore is returned by operations that need the database when the app
// was initialized without one.
var ErrNoStore = errors.New("pitchmate: store not initialized")

// App owns every long-lived component: the shared face detector, the
// speech analyzer, the commentary model and the database.
type App struct {
	config config.Config
	logger *slog.Logger

	detector    detection.Detector
	analyzer    *speech.Analyzer
	combiner    *session.Combiner
	commentator *inference.Commentator
	provider    inference.Provider
	store       *store.Store
	hub         *hub.Hub
	publish     session.ProgressFunc
}

// Option customizes App construction
type Option func(*App)

// WithDetector injects a face detector instead of building one from config.
// The app takes ownership and closes it on Shutdown.
func WithDetector(d detection.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithProvider injects the commentary model
func WithProvider(p inference.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithStore injects an open store
func WithStore(s *store.Store) Option {
	return func(a *App) { a.store = s }
}

// New validates cfg and creates an App. Call Init before use.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{
		config: cfg,
		logger: log.Component("pitchmate"),
		hub:    hub.New("progress"),
	}
	a.publish = web.ProgressPublisher(a.hub)
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init builds the components. withStore opens the database; commands that
// neither save nor list can skip it.
func (a *App) Init(ctx context.Context, withStore bool) error {
	if err := a.initDetector(); err != nil {
		return fmt.Errorf("face detector: %w", err)
	}
	if err := a.initSpeech(ctx); err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	if err := a.initCombiner(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	a.initFeedback()

	if withStore && a.store == nil {
		path := a.config.Store.Path
		if path == "" {
			path = store.DefaultDBPath()
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		a.store = st
		a.logger.Debug("store opened", "path", path)
	}
	return nil
}

func (a *App) initDetector() error {
	if a.detector != nil {
		return nil
	}
	cfg := detection.DefaultConfig()
	cfg.Backend = a.config.Detector.Kind
	cfg.CascadePath = a.config.Detector.CascadePath
	cfg.ModelPath = a.config.Detector.ModelPath
	if a.config.Detector.ConfidenceThresh > 0 {
		cfg.ConfidenceThresh = a.config.Detector.ConfidenceThresh
	}

	d, err := detection.New(cfg)
	if err != nil {
		return err
	}
	a.detector = d
	a.logger.Info("face detector ready", "backend", cfg.Backend)
	return nil
}

func (a *App) initSpeech(ctx context.Context) error {
	loaderCfg := audioio.DefaultConfig()
	loaderCfg.FFmpegBin = a.config.Media.FFmpegBin
	loaderCfg.FFprobeBin = a.config.Media.FFprobeBin
	loader, err := audioio.NewLoader(loaderCfg, log.Component("audioio"))
	if err != nil {
		return err
	}

	var transcriber speech.Transcriber
	if a.config.Speech.Disabled {
		a.logger.Info("transcription disabled")
	} else {
		g, err := speech.NewGoogleTranscriber(ctx, speech.GoogleConfig{
			APIKey: a.config.Speech.APIKey,
			Logger: log.Component("speech.google"),
		})
		if err != nil {
			// Signal features are still computed without a transcript
			a.logger.Warn("transcription unavailable", "error", err)
		} else {
			transcriber = g
		}
	}

	cfg := speech.DefaultConfig()
	cfg.LanguageCode = a.config.Speech.LanguageCode
	cfg.CalibrationWindow = a.config.Speech.CalibrationWindow
	if a.config.Speech.Timeout > 0 {
		cfg.Timeout = a.config.Speech.Timeout
	}

	a.analyzer, err = speech.NewAnalyzer(loader, transcriber,
		speech.WithConfig(cfg),
		speech.WithLogger(log.Component("speech")),
	)
	return err
}

func (a *App) initCombiner() error {
	trackingCfg := tracking.DefaultConfig()
	trackingCfg.BlurKernel = a.config.Motion.BlurKernel
	trackingCfg.PixelThreshold = a.config.Motion.PixelThreshold

	c, err := session.New(a.detector, a.analyzer,
		session.WithTrackingConfig(trackingCfg),
		session.WithCatalog(feedback.Lookup(a.config.Language)),
		session.WithLogger(log.Component("session")),
		session.WithProgress(a.onProgress, 30),
	)
	if err != nil {
		return err
	}
	a.combiner = c
	return nil
}

// initFeedback sets up commentary. Without a key the commentator still
// answers with the fallback texts.
func (a *App) initFeedback() {
	if a.provider == nil && a.config.Feedback.APIKey != "" {
		models := append([]string{a.config.Feedback.Model}, a.config.Feedback.FallbackModels...)
		chain, err := inference.NewGeminiChain(models,
			inference.WithAPIKey(a.config.Feedback.APIKey),
			inference.WithTimeout(a.config.Feedback.Timeout),
			inference.WithLogger(log.Component("inference")),
		)
		if err != nil {
			a.logger.Warn("commentary model unavailable", "error", err)
		} else {
			a.provider = chain
		}
	}

	a.commentator = inference.NewCommentator(a.provider, feedback.Lookup(a.config.Language),
		inference.WithLanguage(a.config.Language),
		inference.WithCommentTimeout(a.config.Feedback.Timeout),
		inference.WithCommentLogger(log.Component("inference.commentary")),
	)
}

func (a *App) onProgress(p session.Progress) {
	debug.Log("progress", "session", p.SessionID, "stage", p.Stage, "frames", p.Frames)
	if a.hub.IsRunning() {
		a.publish(p)
	}
}

// Store returns the database, or nil when Init skipped it
func (a *App) Store() *store.Store {
	return a.store
}

// Serve runs the HTTP API until ctx is done
func (a *App) Serve(ctx context.Context) error {
	if a.store == nil {
		return ErrNoStore
	}

	var commenter web.Commenter
	if a.config.Feedback.Enabled {
		commenter = a.commentator
	}

	srv, err := web.New(web.Config{
		Addr:          a.config.Server.Addr,
		UploadDir:     a.config.Server.UploadDir,
		MaxConcurrent: a.config.Server.MaxConcurrent,
		BodyLimit:     a.config.Server.BodyLimitMB << 20,
		KeepUploads:   a.config.Server.KeepUploads,
		Extract:       a.extractConfig(),
		Logger:        log.Component("web"),
	}, web.Deps{
		Pipeline:  a.combiner,
		Store:     a.store,
		Commenter: commenter,
		Coach:     a.commentator,
		Hub:       a.hub,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func (a *App) extractConfig() video.ExtractConfig {
	cfg := video.DefaultExtractConfig()
	cfg.FFmpegBin = a.config.Media.FFmpegBin
	cfg.SampleRate = 16000
	return cfg
}

// Shutdown releases every component
func (a *App) Shutdown() {
	if a.detector != nil {
		a.detector.Close()
	}
	if a.provider != nil {
		a.provider.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
