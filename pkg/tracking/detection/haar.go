package detection

import (
	"fmt"
	"image"
	"sync"

	"github.com/gulaysahinn/pitchmate-pro/pkg/debug"
	"gocv.io/x/gocv"
)

// HaarDetector uses an OpenCV cascade classifier for frontal face detection
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	config     Config
	gray       gocv.Mat
	mu         sync.Mutex // Protects classifier and scratch buffer
}

// NewHaar loads the cascade at cfg.CascadePath
func NewHaar(cfg Config) (*HaarDetector, error) {
	if err := checkModel(cfg.CascadePath); err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade from %s", cfg.CascadePath)
	}

	if cfg.ScaleFactor <= 1 {
		cfg.ScaleFactor = 1.1
	}
	if cfg.MinNeighbors <= 0 {
		cfg.MinNeighbors = 5
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 30
	}

	return &HaarDetector{
		classifier: classifier,
		config:     cfg,
		gray:       gocv.NewMat(),
	}, nil
}

// Detect finds faces in the frame
func (d *HaarDetector) Detect(frame gocv.Mat) ([]FaceBox, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	Gray(frame, &d.gray)

	rects := d.classifier.DetectMultiScaleWithParams(
		d.gray,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,
		image.Pt(d.config.MinSize, d.config.MinSize),
		image.Pt(0, 0), // No upper bound
	)

	boxes := make([]FaceBox, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, FaceBox{
			X:          r.Min.X,
			Y:          r.Min.Y,
			W:          r.Dx(),
			H:          r.Dy(),
			Confidence: 1,
		})
	}

	if len(boxes) > 0 {
		debug.TrackLog("haar faces", "count", len(boxes))
	}

	return boxes, nil
}

// Close releases the classifier
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gray.Close()
	return d.classifier.Close()
}

var _ Detector = (*HaarDetector)(nil)
