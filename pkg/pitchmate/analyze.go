package pitchmate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
	"github.com/gulaysahinn/pitchmate-pro/pkg/store"
	"github.com/gulaysahinn/pitchmate-pro/pkg/video"
)

// AnalyzeOptions selects what Analyze does besides scoring
type AnalyzeOptions struct {
	VideoPath string

	// AudioPath is analyzed instead of the video's own audio track
	AudioPath string

	// NoExtract skips pulling audio out of the video when AudioPath is empty
	NoExtract bool

	Feedback bool // Ask the model for commentary
	Save     bool // Persist the result
}

// Analysis is the outcome of one Analyze call
type Analysis struct {
	Report         *session.Report
	Feedback       string
	PresentationID string
}

// Output renders the analysis as plain maps for JSON or YAML encoding
func (r *Analysis) Output() map[string]any {
	m := r.Report.Map()
	if r.Feedback != "" {
		m["ai_feedback"] = r.Feedback
	}
	if r.PresentationID != "" {
		m["presentation_id"] = r.PresentationID
	}
	return m
}

// Analyze scores one recording. The report itself never fails; errors come
// only from a missing input or from saving.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) (*Analysis, error) {
	if a.combiner == nil {
		return nil, errors.New("pitchmate: Init not called")
	}
	if _, err := os.Stat(opts.VideoPath); err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	if opts.Save && a.store == nil {
		return nil, ErrNoStore
	}

	audioPath := opts.AudioPath
	if audioPath == "" && !opts.NoExtract {
		extracted, err := video.ExtractAudio(ctx, a.extractConfig(), opts.VideoPath)
		switch {
		case err == nil:
			defer extracted.Cleanup()
			audioPath = extracted.Path
		case errors.Is(err, video.ErrNoAudioTrack):
			a.logger.Info("video has no audio track", "video", opts.VideoPath)
		default:
			a.logger.Warn("audio extraction failed, scoring video only", "error", err)
		}
	}

	out := &Analysis{
		Report: a.combiner.Run(ctx, uuid.NewString(), opts.VideoPath, audioPath),
	}
	if opts.Feedback {
		out.Feedback = a.commentator.Comment(ctx, out.Report)
	}

	if opts.Save {
		p, err := store.FromReport(out.Report, out.Feedback)
		if err != nil {
			return out, err
		}
		if err := a.store.Save(ctx, &p); err != nil {
			return out, fmt.Errorf("save: %w", err)
		}
		out.PresentationID = p.ID
	}
	return out, nil
}

// History lists saved presentations, newest first
func (a *App) History(ctx context.Context, limit int) ([]store.Presentation, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	return a.store.List(ctx, limit)
}
