package session

import (
	"time"

	"github.com/gulaysahinn/pitchmate-pro/pkg/speech"
	"github.com/gulaysahinn/pitchmate-pro/pkg/tracking"
)

// SpeechData is the speech section of a report. Present is false when the
// session had no audio and the embedded features are the zero placeholder.
type SpeechData struct {
	Present bool `json:"present"`
	speech.Features
}

// VideoMetrics holds the per-tracker summaries behind the headline scores.
type VideoMetrics struct {
	EyeContact   tracking.EyeContactSummary   `json:"eye_contact"`
	BodyLanguage tracking.BodyLanguageSummary `json:"body_language"`
}

// Report is the result of one analysis session. It is built once by the
// Combiner and not modified afterwards.
type Report struct {
	SessionID         string    `json:"session_id"`
	VideoPath         string    `json:"video_path"`
	AudioPath         string    `json:"audio_path"`
	Frames            int       `json:"frames"`
	FPS               float64   `json:"fps"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
	ProcessingSeconds float64   `json:"processing_seconds"`

	EyeScore        float64      `json:"eye_score"`
	BodyScore       float64      `json:"body_score"`
	SpeechData      SpeechData   `json:"speech_data"`
	VideoMetrics    VideoMetrics `json:"video_metrics"`
	OverallScore    float64      `json:"overall_score"`
	Recommendations []string     `json:"recommendations"`
	Warnings        []string     `json:"warnings"`
}

// Map returns the report as a nested map holding only plain values
// (string, bool, int64, float64, []any, map[string]any, nil), keyed like
// the JSON encoding.
func (r *Report) Map() map[string]any {
	m, _ := Sanitize(r).(map[string]any)
	return m
}
