package session

import (
	"math"

	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/speech"
)

// Speech delivery thresholds
const (
	FastWPM         = 160 // Above this the presenter is rushing
	SlowWPM         = 90  // Below this (and above zero) the presenter drags
	FillerWarnAbove = 4
)

// OverallScore averages eye contact, body language and vocal liveliness.
// Liveliness only counts when audio was analyzed and produced a non-zero
// value; otherwise the score is the mean of the two visual scores.
func OverallScore(eye, body float64, audio speech.Result) float64 {
	if f, ok := audio.Features(); ok && f.AudioFeatures.LivelinessScore > 0 {
		return round1((eye + body + f.AudioFeatures.LivelinessScore) / 3)
	}
	return round1((eye + body) / 2)
}

// SpeechRecommendations returns the pace and filler-word advice for f,
// in that order.
func SpeechRecommendations(f speech.Features, catalog feedback.Catalog) []string {
	var recs []string

	wpm := f.SpeakingRate.WordsPerMinute
	switch {
	case wpm > FastWPM:
		recs = append(recs, catalog.TooFast)
	case wpm > 0 && wpm < SlowWPM:
		recs = append(recs, catalog.TooSlow)
	}

	if n := f.FillerWords.Count; n > FillerWarnAbove {
		recs = append(recs, catalog.Fillers(n))
	}
	return recs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
