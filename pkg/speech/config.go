// Package speech measures speech delivery: speaking rate, filler words and
// vocal liveliness derived from loudness and pitch variation.
package speech

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds speech analysis parameters
type Config struct {
	// LanguageCode is the BCP-47 code sent to the transcription service.
	LanguageCode string

	// Ambient calibration
	CalibrationWindow time.Duration // Leading audio used to estimate the noise floor
	VoiceFrame        time.Duration // Frame used to look for speech above the floor
	MinSpeechDBFS     float64       // Speech threshold never drops below this
	SpeechMarginDB    float64       // Speech must be this far above the noise floor
	SilenceDBFS       float64       // Recordings that never reach this are not transcribed

	// Transcription
	Timeout time.Duration // Bound on the whole transcription call

	// Loudness envelope
	RMSFrame int // Samples per RMS frame
	RMSHop   int // Samples between RMS frames

	// Pitch tracking
	PitchRate      int     // Waveform is resampled to this rate before pitch tracking
	PitchFrame     int     // Samples per pitch frame at PitchRate
	PitchHop       int     // Samples between pitch frames at PitchRate
	PitchMinHz     float64 // Lowest plausible voice pitch
	PitchMaxHz     float64 // Highest plausible voice pitch
	TroughThresh   float64 // Normalized difference below which a trough is accepted
	EnergyStdNorm  float64 // Energy standard deviation that earns the full energy sub-score
	PitchStdNormHz float64 // Pitch standard deviation that earns the full pitch sub-score
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		LanguageCode: "tr-TR",

		CalibrationWindow: 500 * time.Millisecond,
		VoiceFrame:        30 * time.Millisecond,
		MinSpeechDBFS:     -45,
		SpeechMarginDB:    3.5, // 1.5x amplitude
		SilenceDBFS:       -80,

		Timeout: 5 * time.Minute,

		RMSFrame: 2048,
		RMSHop:   512,

		PitchRate:      16000,
		PitchFrame:     1024,
		PitchHop:       256,
		PitchMinHz:     80,
		PitchMaxHz:     300,
		TroughThresh:   0.1,
		EnergyStdNorm:  0.08,
		PitchStdNormHz: 40,
	}
}

// Language returns the base language of the configured code ("tr-TR" -> "tr")
func (c Config) Language() string {
	lang, _, _ := strings.Cut(strings.ToLower(c.LanguageCode), "-")
	return lang
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithConfig replaces the analysis parameters
func WithConfig(cfg Config) Option {
	return func(a *Analyzer) {
		a.config = cfg
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// Validate checks that the parameters are usable
func (c Config) Validate() error {
	switch {
	case c.LanguageCode == "":
		return fmt.Errorf("speech: language code is required")
	case c.CalibrationWindow < 0 || c.VoiceFrame <= 0:
		return fmt.Errorf("speech: calibration window and voice frame must be positive")
	case c.RMSFrame <= 0 || c.RMSHop <= 0:
		return fmt.Errorf("speech: rms frame and hop must be positive")
	case c.PitchRate <= 0 || c.PitchFrame <= 0 || c.PitchHop <= 0:
		return fmt.Errorf("speech: pitch rate, frame and hop must be positive")
	case c.PitchMinHz <= 0 || c.PitchMaxHz <= c.PitchMinHz:
		return fmt.Errorf("speech: pitch band %.0f-%.0f Hz is invalid", c.PitchMinHz, c.PitchMaxHz)
	case float64(c.PitchRate)/c.PitchMaxHz >= float64(c.PitchFrame/2-1):
		return fmt.Errorf("speech: pitch frame %d too short for %.0f Hz", c.PitchFrame, c.PitchMaxHz)
	case c.EnergyStdNorm <= 0 || c.PitchStdNormHz <= 0:
		return fmt.Errorf("speech: normalization constants must be positive")
	}
	return nil
}
