package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
)

// Analyzer measures speech delivery for one audio file at a time.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	config      Config
	loader      audioio.Loader
	transcriber Transcriber
	fillers     *FillerCatalog
	logger      *slog.Logger
}

// NewAnalyzer creates an analyzer. transcriber may be nil, in which case
// transcription is skipped and only signal features are measured.
func NewAnalyzer(loader audioio.Loader, transcriber Transcriber, opts ...Option) (*Analyzer, error) {
	if loader == nil {
		return nil, fmt.Errorf("speech: audio loader is required")
	}

	a := &Analyzer{
		config:      DefaultConfig(),
		loader:      loader,
		transcriber: transcriber,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	if a.logger == nil {
		a.logger = log.Component("speech")
	}
	a.fillers = NewFillerCatalog(a.config.Language())

	return a, nil
}

// Config returns the analysis parameters
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze measures the recording at path. It never fails: problems are
// recorded as warnings and the affected metrics stay at zero.
func (a *Analyzer) Analyze(ctx context.Context, path string) Features {
	f := Zero()
	logger := a.logger.With("path", path)

	w, err := a.loader.Load(ctx, path)
	if err != nil {
		logger.Warn("audio decode failed", "error", err)
		f.Status = StatusUnreadable
		f.Warnings = append(f.Warnings, fmt.Sprintf("audio could not be decoded: %v", err))
		return f
	}

	duration := w.Duration()
	f.DurationSeconds = roundTo(duration, 2)

	f.Status = a.transcribe(ctx, w, &f)

	// Words and fillers
	f.WordCount = WordCount(f.Transcript)
	if duration > 0 {
		f.SpeakingRate.WordsPerMinute = int(float64(f.WordCount) / duration * 60)
	}
	f.FillerWords = a.fillers.Count(f.Transcript, f.WordCount)

	// Signal features
	sig, err := MeasureSignal(w, a.config)
	if err != nil {
		logger.Warn("signal analysis failed", "error", err)
		f.Warnings = append(f.Warnings, fmt.Sprintf("signal analysis failed: %v", err))
	} else {
		f.AudioFeatures = sig.Features(a.config)
	}

	logger.Info("speech analyzed",
		"status", f.Status,
		"seconds", f.DurationSeconds,
		"words", f.WordCount,
		"wpm", f.SpeakingRate.WordsPerMinute,
		"fillers", f.FillerWords.Count,
		"liveliness", f.AudioFeatures.LivelinessScore,
	)
	return f
}

// transcribe runs calibration and the transcription service, filling the
// transcript and warnings
func (a *Analyzer) transcribe(ctx context.Context, w audioio.Waveform, f *Features) Status {
	cal := Calibrate(w, a.config)
	if cal.PeakDBFS < a.config.SilenceDBFS {
		a.logger.Debug("recording is silent", "peak_dbfs", math.Round(cal.PeakDBFS))
		return StatusSilent
	}

	if a.transcriber == nil {
		return StatusSkipped
	}

	// Quiet recordings are still sent; the service decides whether there are words
	if !cal.Voiced {
		a.logger.Debug("speech close to noise floor",
			"floor_dbfs", math.Round(cal.NoiseFloorDBFS),
			"peak_dbfs", math.Round(cal.PeakDBFS),
			"threshold_dbfs", math.Round(cal.ThresholdDBFS))
		f.Warnings = append(f.Warnings, "speech barely rises above the background noise; the transcript may be incomplete")
	}

	tctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	start := time.Now()
	speech := audioio.Waveform{Samples: w.Samples[cal.Offset:], SampleRate: w.SampleRate}
	t, err := a.transcriber.Transcribe(tctx, speech, a.config.LanguageCode)

	switch {
	case errors.Is(err, ErrNoSpeech):
		return StatusUnintelligible
	case err != nil:
		a.logger.Warn("transcription failed", "error", err, "elapsed", time.Since(start))
		f.Warnings = append(f.Warnings, fmt.Sprintf("transcription failed: %v", err))
		return StatusFailed
	}

	f.Transcript = t.Text
	if WordCount(t.Text) == 0 {
		return StatusUnintelligible
	}
	return StatusOK
}
