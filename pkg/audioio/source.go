package audioio

import (
	"context"
	"errors"
)

// ErrNoAudio is returned when a file decodes to zero samples.
var ErrNoAudio = errors.New("audioio: no audio samples")

// Waveform is a mono signal held in memory.
type Waveform struct {
	// Samples are normalized to [-1, 1].
	Samples []float64

	// SampleRate is the sample rate in Hz.
	SampleRate int
}

// Duration returns the length of the waveform in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Empty reports whether the waveform has no samples.
func (w Waveform) Empty() bool {
	return len(w.Samples) == 0 || w.SampleRate <= 0
}

// Resampled returns a copy of the waveform at rate.
func (w Waveform) Resampled(rate int) Waveform {
	return Waveform{
		Samples:    ResampleFloat(w.Samples, w.SampleRate, rate),
		SampleRate: rate,
	}
}

// PCM16 returns the waveform as little-endian signed 16-bit PCM bytes.
func (w Waveform) PCM16() []byte {
	return SamplesToBytes(FloatToSamples(w.Samples))
}

// Loader decodes an audio file into a mono waveform.
type Loader interface {
	// Load reads and decodes the whole file.
	Load(ctx context.Context, path string) (Waveform, error)

	// Name returns the backend name (e.g., "ffmpeg", "opus", "mock").
	Name() string
}
