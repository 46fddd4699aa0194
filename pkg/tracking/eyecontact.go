package tracking

import (
	"log/slog"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// Eye contact score bands
const (
	weakEyeContact = 50.0
	goodEyeContact = 80.0
)

// EyeContactFrame is the per-frame result of the face centering tracker
type EyeContactFrame struct {
	FaceDetected bool               `json:"face_detected"`
	EyeContact   bool               `json:"eye_contact"`
	Face         *detection.FaceBox `json:"face,omitempty"`
	Offset       float64            `json:"offset"` // |frame center - face center| as a fraction of width
}

// EyeContactSummary aggregates a whole clip
type EyeContactSummary struct {
	Score            float64  `json:"overall_eye_contact_score"`
	TotalFrames      int      `json:"total_frames"`
	FaceFrames       int      `json:"face_detected_frames"`
	EyeContactFrames int      `json:"eye_contact_frames"`
	FaceDetected     bool     `json:"face_detected"`
	Recommendations  []string `json:"recommendations"`
}

// FaceCenteringTracker approximates eye contact by checking whether the
// largest face stays horizontally near the middle of the frame.
// Not safe for concurrent use; create one per session.
type FaceCenteringTracker struct {
	config   Config
	detector detection.Detector
	catalog  feedback.Catalog
	logger   *slog.Logger

	totalFrames      int
	faceFrames       int
	eyeContactFrames int
}

// NewFaceCenteringTracker creates a tracker using a shared detector.
// The detector is owned by the caller and is not closed by the tracker.
func NewFaceCenteringTracker(config Config, detector detection.Detector, catalog feedback.Catalog) *FaceCenteringTracker {
	return &FaceCenteringTracker{
		config:   config,
		detector: detector,
		catalog:  catalog,
		logger:   log.Component("eye-contact"),
	}
}

// ProcessFrame analyzes one frame and updates the running counters.
// Detection failures are logged and treated as "no face".
func (t *FaceCenteringTracker) ProcessFrame(frame gocv.Mat) EyeContactFrame {
	if frame.Empty() {
		t.totalFrames++
		return EyeContactFrame{}
	}

	boxes, err := t.detector.Detect(frame)
	if err != nil {
		t.logger.Debug("face detection failed", "error", err)
		boxes = nil
	}
	return t.observe(boxes, frame.Cols())
}

// observe applies the centering rule to the detections of one frame
func (t *FaceCenteringTracker) observe(boxes []detection.FaceBox, frameWidth int) EyeContactFrame {
	t.totalFrames++

	face := detection.Largest(boxes)
	if face == nil || frameWidth <= 0 {
		return EyeContactFrame{}
	}
	t.faceFrames++

	faceX, _ := face.Center()
	centerX := frameWidth / 2
	dx := centerX - faceX
	if dx < 0 {
		dx = -dx
	}

	result := EyeContactFrame{
		FaceDetected: true,
		Face:         face,
		Offset:       float64(dx) / float64(frameWidth),
	}
	if float64(dx) < float64(frameWidth)*t.config.CenterTolerance {
		result.EyeContact = true
		t.eyeContactFrames++
	}
	return result
}

// Summarize returns the aggregate for all frames seen so far.
// It does not modify tracker state.
func (t *FaceCenteringTracker) Summarize() EyeContactSummary {
	s := EyeContactSummary{
		TotalFrames:      t.totalFrames,
		FaceFrames:       t.faceFrames,
		EyeContactFrames: t.eyeContactFrames,
		FaceDetected:     t.faceFrames > 0,
	}

	if t.faceFrames == 0 {
		s.Recommendations = []string{t.catalog.FaceNotDetected}
		return s
	}

	s.Score = round1(clamp(percent(t.eyeContactFrames, t.faceFrames), 0, 100))

	switch {
	case s.Score < weakEyeContact:
		s.Recommendations = []string{t.catalog.EyeContactWeak}
	case s.Score < goodEyeContact:
		s.Recommendations = []string{t.catalog.EyeContactFair}
	default:
		s.Recommendations = []string{t.catalog.EyeContactGood}
	}
	return s
}
