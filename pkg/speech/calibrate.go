package speech

import (
	"math"

	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
)

// Calibration is the result of ambient noise estimation
type Calibration struct {
	NoiseFloorDBFS float64 // Level of the leading window
	ThresholdDBFS  float64 // Level a frame must reach to count as speech
	PeakDBFS       float64 // Loudest frame after the window
	Voiced         bool    // At least one frame after the window reached the threshold
	Offset         int     // First sample after the calibration window
}

// Calibrate estimates the noise floor from the leading window and checks
// whether the rest of the recording contains anything louder.
func Calibrate(w audioio.Waveform, cfg Config) Calibration {
	window := int(cfg.CalibrationWindow.Seconds() * float64(w.SampleRate))
	if window > len(w.Samples) {
		window = len(w.Samples)
	}

	cal := Calibration{
		NoiseFloorDBFS: rmsDBFS(w.Samples[:window]),
		PeakDBFS:       rmsDBFS(nil),
		Offset:         window,
	}
	cal.ThresholdDBFS = math.Max(cfg.MinSpeechDBFS, cal.NoiseFloorDBFS+cfg.SpeechMarginDB)

	frame := int(cfg.VoiceFrame.Seconds() * float64(w.SampleRate))
	if frame <= 0 {
		frame = 1
	}

	rest := w.Samples[window:]
	for start := 0; start < len(rest); start += frame {
		end := min(start+frame, len(rest))
		cal.PeakDBFS = math.Max(cal.PeakDBFS, rmsDBFS(rest[start:end]))
	}
	cal.Voiced = cal.PeakDBFS >= cal.ThresholdDBFS
	return cal
}

func rmsDBFS(samples []float64) float64 {
	if len(samples) == 0 {
		return -100.0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum/float64(len(samples)) + 1e-12)
	return 20.0 * math.Log10(rms+1e-12)
}
