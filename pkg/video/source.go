// Package video reads recorded presentations: frames through gocv and the
// audio track through ffmpeg.
package video

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ErrOpen is returned when a video file cannot be opened for decoding.
var ErrOpen = errors.New("video: cannot open")

// FrameSource yields decoded frames in presentation order.
type FrameSource interface {
	// Next decodes the next frame into dst. It returns false once the
	// stream is exhausted or unreadable.
	Next(dst *gocv.Mat) bool

	// FPS returns the nominal frame rate, 0 when unknown.
	FPS() float64

	// Close releases the decoder.
	Close() error
}

// Opener opens a FrameSource for a path.
type Opener func(path string) (FrameSource, error)

// CaptureSource decodes a file with OpenCV's VideoCapture.
type CaptureSource struct {
	capture *gocv.VideoCapture
	fps     float64
	mu      sync.Mutex
}

// Open opens path for sequential decoding.
func Open(path string) (FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, path, err)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w %s: no decodable stream", ErrOpen, path)
	}

	return &CaptureSource{
		capture: capture,
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}, nil
}

// Next reads the next frame. Empty reads end the stream.
func (s *CaptureSource) Next(dst *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return false
	}
	if ok := s.capture.Read(dst); !ok || dst.Empty() {
		return false
	}
	return true
}

// FPS returns the container's frame rate.
func (s *CaptureSource) FPS() float64 { return s.fps }

// Close releases the capture. Safe to call twice.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}

// MatSource replays in-memory frames. Used by tests and by callers that
// already hold decoded images.
type MatSource struct {
	frames []gocv.Mat
	fps    float64
	pos    int
}

// NewMatSource wraps frames. The source does not take ownership of them.
func NewMatSource(fps float64, frames ...gocv.Mat) *MatSource {
	return &MatSource{frames: frames, fps: fps}
}

// Next copies the next frame into dst.
func (s *MatSource) Next(dst *gocv.Mat) bool {
	if s.pos >= len(s.frames) {
		return false
	}
	s.frames[s.pos].CopyTo(dst)
	s.pos++
	return true
}

// FPS returns the configured frame rate.
func (s *MatSource) FPS() float64 { return s.fps }

// Close is a no-op.
func (s *MatSource) Close() error { return nil }

var (
	_ FrameSource = (*CaptureSource)(nil)
	_ FrameSource = (*MatSource)(nil)
)
