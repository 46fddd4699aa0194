// Package detection provides face detection using computer vision
package detection

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// ErrModelNotFound is returned when a detector model file does not exist.
var ErrModelNotFound = errors.New("detection: model file not found")

// FaceBox is an axis-aligned face rectangle in frame pixels.
type FaceBox struct {
	X, Y       int     // Top-left corner
	W, H       int     // Width and height
	Confidence float64 // Detection confidence (0-1), 1 when the backend has no score
}

// Center returns the center point of the box (integer pixel coordinates)
func (b FaceBox) Center() (x, y int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the area of the box in pixels
func (b FaceBox) Area() int {
	return b.W * b.H
}

// Detector is the interface for face detection backends.
// Implementations must be safe for concurrent use: one detector is shared
// by every analysis session of the process.
type Detector interface {
	// Detect finds faces in a BGR, BGRA or grayscale frame.
	// Finding no face is not an error.
	Detect(frame gocv.Mat) ([]FaceBox, error)

	// Close releases resources
	Close() error
}

// Backend names accepted by New.
const (
	BackendHaar  = "haar"
	BackendYuNet = "yunet"
)

// Config holds detector configuration
type Config struct {
	Backend string // "haar" or "yunet"

	// Haar cascade
	CascadePath  string  // Path to the cascade XML
	ScaleFactor  float64 // Image pyramid scale step
	MinNeighbors int     // Neighbour rectangles needed to keep a candidate
	MinSize      int     // Smallest face side in pixels

	// YuNet
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults (frontal-face Haar cascade)
func DefaultConfig() Config {
	return Config{
		Backend:          BackendHaar,
		CascadePath:      "models/haarcascade_frontalface_default.xml",
		ScaleFactor:      1.1,
		MinNeighbors:     5,
		MinSize:          30,
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// New creates the detector selected by cfg.Backend
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case BackendHaar, "":
		return NewHaar(cfg)
	case BackendYuNet:
		return NewYuNet(cfg)
	default:
		return nil, fmt.Errorf("detection: unknown backend %q", cfg.Backend)
	}
}

// Largest picks the face with the biggest area (the subject closest to the camera).
// Ties keep the first box. Returns nil for an empty slice.
func Largest(boxes []FaceBox) *FaceBox {
	if len(boxes) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(boxes); i++ {
		if boxes[i].Area() > boxes[best].Area() {
			best = i
		}
	}
	return &boxes[best]
}

// Gray converts src to a single-channel intensity image in dst.
// Grayscale input is copied as-is.
func Gray(src gocv.Mat, dst *gocv.Mat) {
	switch src.Channels() {
	case 1:
		src.CopyTo(dst)
	case 4:
		gocv.CvtColor(src, dst, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(src, dst, gocv.ColorBGRToGray)
	}
}

func checkModel(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return nil
}
