package detection

import (
	"fmt"
	"image"
	"sync"

	"github.com/gulaysahinn/pitchmate-pro/pkg/debug"
	"gocv.io/x/gocv"
)

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	bgr      gocv.Mat
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	// Create FaceDetectorYN with initial size (will be updated per-image)
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",                                        // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight), // Initial input size
		float32(cfg.ConfidenceThresh),             // Score threshold
		0.3,                                       // NMS threshold
		5000,                                      // Top K
		int(gocv.NetBackendDefault),               // Backend
		int(gocv.NetTargetCPU),                    // Target
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
		bgr:      gocv.NewMat(),
	}, nil
}

// Detect finds faces in the frame
func (d *YuNetDetector) Detect(frame gocv.Mat) ([]FaceBox, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// YuNet expects 3-channel input
	img := frame
	switch frame.Channels() {
	case 1:
		gocv.CvtColor(frame, &d.bgr, gocv.ColorGrayToBGR)
		img = d.bgr
	case 4:
		gocv.CvtColor(frame, &d.bgr, gocv.ColorBGRAToBGR)
		img = d.bgr
	}

	// Update detector input size to match image
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var boxes []FaceBox
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		boxes = append(boxes, FaceBox{
			X:          int(faces.GetFloatAt(r, 0)),
			Y:          int(faces.GetFloatAt(r, 1)),
			W:          int(faces.GetFloatAt(r, 2)),
			H:          int(faces.GetFloatAt(r, 3)),
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}

	if len(boxes) > 0 {
		debug.TrackLog("yunet faces", "count", len(boxes))
	}

	return boxes, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bgr.Close()
	d.detector.Close()
	return nil
}

var _ Detector = (*YuNetDetector)(nil)
