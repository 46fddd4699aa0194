package tracking

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// fakeDetector returns scripted detections, one entry per call
type fakeDetector struct {
	frames [][]detection.FaceBox
	err    error
	calls  int
}

func (f *fakeDetector) Detect(frame gocv.Mat) ([]detection.FaceBox, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls < len(f.frames) {
		return f.frames[f.calls], nil
	}
	return nil, nil
}

func (f *fakeDetector) Close() error { return nil }

func blackFrame(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
}

func TestEyeContact_NoFaceEver(t *testing.T) {
	catalog := feedback.Lookup("en")
	tracker := NewFaceCenteringTracker(DefaultConfig(), &fakeDetector{}, catalog)

	frame := blackFrame(160, 120)
	defer frame.Close()

	for i := 0; i < 10; i++ {
		m := tracker.ProcessFrame(frame)
		if m.FaceDetected || m.EyeContact {
			t.Fatalf("frame %d: expected no face, got %+v", i, m)
		}
	}

	s := tracker.Summarize()
	if s.Score != 0 {
		t.Errorf("Score = %.1f, want 0", s.Score)
	}
	if s.TotalFrames != 10 || s.FaceDetected {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(s.Recommendations) != 1 || s.Recommendations[0] != catalog.FaceNotDetected {
		t.Errorf("Recommendations = %v, want only face-not-detected", s.Recommendations)
	}
}

func TestEyeContact_CenteringRule(t *testing.T) {
	const width = 640 // center 320, tolerance 192 px

	tests := []struct {
		name    string
		boxes   []detection.FaceBox
		face    bool
		contact bool
	}{
		{"no face", nil, false, false},
		{"centered", []detection.FaceBox{{X: 270, Y: 100, W: 100, H: 100}}, true, true},
		{"just inside", []detection.FaceBox{{X: 429, W: 100, H: 100}}, true, true},        // dx 159
		{"outside tolerance", []detection.FaceBox{{X: 470, W: 100, H: 100}}, true, false}, // dx 200
		{"far left", []detection.FaceBox{{X: 0, W: 80, H: 80}}, true, false},               // dx 280
		{"largest decides", []detection.FaceBox{{X: 0, W: 40, H: 40}, {X: 280, W: 80, H: 80}}, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewFaceCenteringTracker(DefaultConfig(), &fakeDetector{}, feedback.Lookup("en"))
			m := tracker.observe(tc.boxes, width)
			if m.FaceDetected != tc.face || m.EyeContact != tc.contact {
				t.Errorf("got face=%v contact=%v, want face=%v contact=%v", m.FaceDetected, m.EyeContact, tc.face, tc.contact)
			}
		})
	}
}

func TestEyeContact_ScoreBands(t *testing.T) {
	catalog := feedback.Lookup("tr")
	centered := []detection.FaceBox{{X: 270, W: 100, H: 100}}
	offCenter := []detection.FaceBox{{X: 0, W: 100, H: 100}}

	tests := []struct {
		name    string
		contact int
		off     int
		missing int
		score   float64
		rec     string
	}{
		{"weak", 2, 8, 0, 20, catalog.EyeContactWeak},
		{"fair", 6, 4, 0, 60, catalog.EyeContactFair},
		{"good", 9, 1, 0, 90, catalog.EyeContactGood},
		// Frames without a face do not lower the score
		{"missing frames ignored", 4, 0, 6, 100, catalog.EyeContactGood},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewFaceCenteringTracker(DefaultConfig(), &fakeDetector{}, catalog)
			for i := 0; i < tc.contact; i++ {
				tracker.observe(centered, 640)
			}
			for i := 0; i < tc.off; i++ {
				tracker.observe(offCenter, 640)
			}
			for i := 0; i < tc.missing; i++ {
				tracker.observe(nil, 640)
			}

			s := tracker.Summarize()
			if s.Score != tc.score {
				t.Errorf("Score = %.1f, want %.1f", s.Score, tc.score)
			}
			if len(s.Recommendations) != 1 || s.Recommendations[0] != tc.rec {
				t.Errorf("Recommendations = %v, want [%s]", s.Recommendations, tc.rec)
			}
		})
	}
}

func TestEyeContact_DetectorErrorIsNoFace(t *testing.T) {
	tracker := NewFaceCenteringTracker(DefaultConfig(), &fakeDetector{err: errors.New("boom")}, feedback.Lookup("en"))
	frame := blackFrame(64, 48)
	defer frame.Close()

	m := tracker.ProcessFrame(frame)
	if m.FaceDetected {
		t.Error("detector error should count as no face")
	}
	if s := tracker.Summarize(); s.TotalFrames != 1 {
		t.Errorf("TotalFrames = %d, want 1", s.TotalFrames)
	}
}

func TestEyeContact_SummarizeIdempotent(t *testing.T) {
	det := &fakeDetector{frames: [][]detection.FaceBox{
		{{X: 50, W: 40, H: 40}},
		{{X: 0, W: 10, H: 10}},
	}}
	tracker := NewFaceCenteringTracker(DefaultConfig(), det, feedback.Lookup("en"))
	frame := blackFrame(160, 120)
	defer frame.Close()

	tracker.ProcessFrame(frame)
	tracker.ProcessFrame(frame)

	a := tracker.Summarize()
	b := tracker.Summarize()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Summarize not idempotent: %+v vs %+v", a, b)
	}
}
