package tracking

import (
	"image"
	"log/slog"
	"math"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// Band classifies average movement
type Band string

const (
	BandStatic    Band = "static"
	BandIdeal     Band = "ideal"
	BandExcessive Band = "excessive"
)

// Body language score bands for recommendations
const (
	correctiveBelow = 70.0
	excellentFrom   = 90.0
)

// MotionFrame is the per-frame result of the motion tracker
type MotionFrame struct {
	Compared      bool    `json:"compared"`       // false for the first frame or after a resize
	MovementRatio float64 `json:"movement_ratio"` // Percent of pixels that changed
}

// BodyLanguageSummary aggregates a whole clip
type BodyLanguageSummary struct {
	Score           float64  `json:"overall_body_language_score"`
	AverageMovement float64  `json:"average_movement"`
	Samples         int      `json:"samples"`
	Band            Band     `json:"band"`
	Recommendations []string `json:"recommendations"`
}

// MotionStabilityTracker measures frame-to-frame pixel change after blurring.
// Not safe for concurrent use; create one per session and Close it.
type MotionStabilityTracker struct {
	config  Config
	catalog feedback.Catalog
	logger  *slog.Logger

	prev    gocv.Mat
	hasPrev bool
	ratios  []float64

	// Scratch buffers reused across frames
	gray    gocv.Mat
	blurred gocv.Mat
	delta   gocv.Mat
	mask    gocv.Mat
}

// NewMotionStabilityTracker creates a motion tracker
func NewMotionStabilityTracker(config Config, catalog feedback.Catalog) *MotionStabilityTracker {
	return &MotionStabilityTracker{
		config:  config,
		catalog: catalog,
		logger:  log.Component("motion"),
		prev:    gocv.NewMat(),
		gray:    gocv.NewMat(),
		blurred: gocv.NewMat(),
		delta:   gocv.NewMat(),
		mask:    gocv.NewMat(),
	}
}

// ProcessFrame compares the frame with the previous one
func (t *MotionStabilityTracker) ProcessFrame(frame gocv.Mat) MotionFrame {
	if frame.Empty() {
		return MotionFrame{}
	}

	detection.Gray(frame, &t.gray)
	k := t.config.BlurKernel
	gocv.GaussianBlur(t.gray, &t.blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	var result MotionFrame
	if t.hasPrev && t.prev.Rows() == t.blurred.Rows() && t.prev.Cols() == t.blurred.Cols() {
		gocv.AbsDiff(t.prev, t.blurred, &t.delta)
		gocv.Threshold(t.delta, &t.mask, float32(t.config.PixelThreshold), 255, gocv.ThresholdBinary)

		changed := gocv.CountNonZero(t.mask)
		ratio := percent(changed, t.mask.Rows()*t.mask.Cols())
		t.ratios = append(t.ratios, ratio)
		result = MotionFrame{Compared: true, MovementRatio: ratio}
	} else if t.hasPrev {
		t.logger.Debug("frame size changed, restarting comparison",
			"from", image.Pt(t.prev.Cols(), t.prev.Rows()),
			"to", image.Pt(t.blurred.Cols(), t.blurred.Rows()))
	}

	t.blurred.CopyTo(&t.prev)
	t.hasPrev = true
	return result
}

// observe records a movement ratio directly
func (t *MotionStabilityTracker) observe(ratio float64) {
	t.ratios = append(t.ratios, ratio)
}

// Summarize returns the aggregate for all frames seen so far.
// It does not modify tracker state.
func (t *MotionStabilityTracker) Summarize() BodyLanguageSummary {
	var sum float64
	for _, r := range t.ratios {
		sum += r
	}
	avg := 0.0
	if len(t.ratios) > 0 {
		avg = sum / float64(len(t.ratios))
	}

	score, band := t.config.StabilityScore(avg)
	s := BodyLanguageSummary{
		Score:           score,
		AverageMovement: math.Round(avg*1000) / 1000,
		Samples:         len(t.ratios),
		Band:            band,
	}

	// The static band ramps up toward the ideal curve, so it is matched on
	// band rather than score
	switch {
	case band == BandStatic:
		s.Recommendations = []string{t.catalog.TooStatic}
	case score < correctiveBelow:
		s.Recommendations = []string{t.catalog.TooMuchMotion}
	case score < excellentFrom:
		s.Recommendations = []string{t.catalog.MotionFair}
	default:
		s.Recommendations = []string{t.catalog.MotionExcellent}
	}
	return s
}

// StabilityScore maps an average movement percentage to a 0-100 score.
// The static band ramps linearly from 60 at zero movement up to the ideal
// curve at StaticBelow so the score is continuous at both band edges.
func (c Config) StabilityScore(avg float64) (float64, Band) {
	if math.IsNaN(avg) || avg < 0 {
		avg = 0
	}

	var score float64
	var band Band
	switch {
	case avg < c.StaticBelow:
		band = BandStatic
		edge := c.idealScore(c.StaticBelow)
		score = 60 + (avg/c.StaticBelow)*(edge-60)
	case avg <= c.ExcessiveAbove:
		band = BandIdeal
		score = c.idealScore(avg)
	default:
		band = BandExcessive
		score = math.Max(0, c.idealScore(c.ExcessiveAbove)-(avg-c.ExcessiveAbove)*10)
	}
	return round1(clamp(score, 0, 100)), band
}

// idealScore peaks at 100 for IdealMovement and falls to 90 at both ends
func (c Config) idealScore(avg float64) float64 {
	return 90 + 10*(1-math.Abs(c.IdealMovement-avg)/c.IdealMovement)
}

// Close releases image buffers
func (t *MotionStabilityTracker) Close() error {
	t.prev.Close()
	t.gray.Close()
	t.blurred.Close()
	t.delta.Close()
	t.mask.Close()
	return nil
}
