// Package session runs the visual trackers and the speech analyzer over one
// recorded presentation and combines their results into a Report.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/speech"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking/detection"
	"github.com/gulaysahinn/pitchmate-pro/pkg/video"
	"gocv.io/x/gocv"
)

// ErrNoDetector is returned by New when no face detector is supplied.
var ErrNoDetector = errors.New("session: face detector required")

// SpeechAnalyzer turns an audio file into speech features. It must not fail;
// problems are reported through the features' status and warnings.
type SpeechAnalyzer interface {
	Analyze(ctx context.Context, path string) speech.Features
}

// Stage names a step of a session, reported through the progress callback.
type Stage string

const (
	StageStarted Stage = "started"
	StageVideo   Stage = "video"
	StageSpeech  Stage = "speech"
	StageDone    Stage = "done"
)

// Progress is one progress notification.
type Progress struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`
	Frames    int    `json:"frames"`
	Message   string `json:"message,omitempty"`
}

// ProgressFunc receives progress notifications. It is called synchronously
// from the analyzing goroutine and should return quickly.
type ProgressFunc func(Progress)

// Combiner analyzes sessions. The detector and speech analyzer are shared by
// every session; trackers are created per session, so one Combiner may run
// several sessions concurrently.
type Combiner struct {
	detector detection.Detector
	analyzer SpeechAnalyzer

	open          video.Opener
	tracking      tracking.Config
	catalog       feedback.Catalog
	logger        *slog.Logger
	progress      ProgressFunc
	progressEvery int
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithOpener replaces the video decoder, e.g. with in-memory frames.
func WithOpener(open video.Opener) Option {
	return func(c *Combiner) { c.open = open }
}

// WithTrackingConfig sets the tracker thresholds.
func WithTrackingConfig(cfg tracking.Config) Option {
	return func(c *Combiner) { c.tracking = cfg }
}

// WithCatalog sets the recommendation language.
func WithCatalog(catalog feedback.Catalog) Option {
	return func(c *Combiner) { c.catalog = catalog }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Combiner) { c.logger = logger }
}

// WithProgress reports progress every n frames (and at each stage change).
func WithProgress(fn ProgressFunc, every int) Option {
	return func(c *Combiner) {
		c.progress = fn
		c.progressEvery = every
	}
}

// New creates a Combiner. analyzer may be nil, in which case every session
// is treated as having no audio.
func New(detector detection.Detector, analyzer SpeechAnalyzer, opts ...Option) (*Combiner, error) {
	if detector == nil {
		return nil, ErrNoDetector
	}

	c := &Combiner{
		detector:      detector,
		analyzer:      analyzer,
		open:          video.Open,
		tracking:      tracking.DefaultConfig(),
		catalog:       feedback.Lookup(feedback.DefaultLanguage),
		logger:        log.Component("session"),
		progressEvery: 30,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.tracking.Validate(); err != nil {
		return nil, fmt.Errorf("tracking config: %w", err)
	}
	if c.progressEvery <= 0 {
		c.progressEvery = 30
	}
	return c, nil
}

// AnalyzeSession analyzes one presentation under a fresh session id.
// See Run.
func (c *Combiner) AnalyzeSession(ctx context.Context, videoPath, audioPath string) *Report {
	return c.Run(ctx, uuid.NewString(), videoPath, audioPath)
}

// Run analyzes the video at videoPath and, when audioPath names an existing
// file, the audio at audioPath. It never fails: an unreadable video counts as
// an empty stream and a missing audio track yields zero speech data.
func (c *Combiner) Run(ctx context.Context, id, videoPath, audioPath string) *Report {
	start := time.Now()
	logger := c.logger.With("session", id)

	report := &Report{
		SessionID:       id,
		VideoPath:       videoPath,
		AudioPath:       audioPath,
		AnalyzedAt:      start.UTC(),
		Recommendations: []string{},
		Warnings:        []string{},
	}

	c.notify(Progress{SessionID: id, Stage: StageStarted})

	eye, body := c.runVideo(ctx, logger, report)

	c.notify(Progress{SessionID: id, Stage: StageSpeech, Frames: report.Frames})
	audio := c.runSpeech(ctx, logger, audioPath)

	features := audio.OrZero()
	report.EyeScore = eye.Score
	report.BodyScore = body.Score
	report.VideoMetrics = VideoMetrics{EyeContact: eye, BodyLanguage: body}
	report.SpeechData = SpeechData{Present: audio.IsPresent(), Features: features}
	report.OverallScore = OverallScore(eye.Score, body.Score, audio)

	report.Recommendations = append(report.Recommendations, eye.Recommendations...)
	report.Recommendations = append(report.Recommendations, body.Recommendations...)
	report.Recommendations = append(report.Recommendations, SpeechRecommendations(features, c.catalog)...)
	report.Warnings = append(report.Warnings, features.Warnings...)

	report.ProcessingSeconds = round1(time.Since(start).Seconds())

	logger.Info("session analyzed",
		"frames", report.Frames,
		"eye", report.EyeScore,
		"body", report.BodyScore,
		"overall", report.OverallScore,
		"speech", features.Status,
	)
	c.notify(Progress{SessionID: id, Stage: StageDone, Frames: report.Frames})

	return report
}

// runVideo decodes the video once, feeding every frame to both trackers
// before reading the next one.
func (c *Combiner) runVideo(ctx context.Context, logger *slog.Logger, report *Report) (tracking.EyeContactSummary, tracking.BodyLanguageSummary) {
	eye := tracking.NewFaceCenteringTracker(c.tracking, c.detector, c.catalog)
	motion := tracking.NewMotionStabilityTracker(c.tracking, c.catalog)
	defer motion.Close()

	src, err := c.open(report.VideoPath)
	if err != nil {
		logger.Warn("video unreadable, treating as empty", "path", report.VideoPath, "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("video unreadable: %v", err))
		return eye.Summarize(), motion.Summarize()
	}
	defer src.Close()
	report.FPS = src.FPS()

	frame := gocv.NewMat()
	defer frame.Close()

	for src.Next(&frame) {
		eye.ProcessFrame(frame)
		motion.ProcessFrame(frame)
		report.Frames++

		if report.Frames%c.progressEvery == 0 {
			c.notify(Progress{SessionID: report.SessionID, Stage: StageVideo, Frames: report.Frames})
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("video analysis interrupted", "frames", report.Frames, "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("video analysis stopped after %d frames: %v", report.Frames, err))
			break
		}
	}

	return eye.Summarize(), motion.Summarize()
}

func (c *Combiner) runSpeech(ctx context.Context, logger *slog.Logger, audioPath string) speech.Result {
	if audioPath == "" || c.analyzer == nil {
		return speech.Absent()
	}
	if _, err := os.Stat(audioPath); err != nil {
		logger.Warn("audio file missing, skipping speech analysis", "path", audioPath, "error", err)
		return speech.Absent()
	}
	return speech.Present(c.analyzer.Analyze(ctx, audioPath))
}

func (c *Combiner) notify(p Progress) {
	if c.progress != nil {
		c.progress(p)
	}
}
