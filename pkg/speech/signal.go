package speech

import (
	"errors"
	"math"

	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// ErrTooShort is returned when a waveform is shorter than one analysis frame
var ErrTooShort = errors.New("speech: audio too short for signal analysis")

// RMSEnvelope returns the frame-wise root mean square of the waveform.
// Frames are centered on hop positions with zero padding at both ends.
func RMSEnvelope(samples []float64, frame, hop int) []float64 {
	if len(samples) == 0 || frame <= 0 || hop <= 0 {
		return nil
	}

	padded := padCenter(samples, frame/2)
	n := 1 + (len(padded)-frame)/hop
	out := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		var sum float64
		for _, s := range padded[i*hop : i*hop+frame] {
			sum += s * s
		}
		out = append(out, math.Sqrt(sum/float64(frame)))
	}
	return out
}

// PitchTracker estimates the fundamental frequency with the YIN method
type PitchTracker struct {
	rate      int
	frame     int
	hop       int
	win       int
	minPeriod int
	maxPeriod int
	threshold float64
	fft       *fourier.FFT
}

// NewPitchTracker creates a tracker for the configured band
func NewPitchTracker(cfg Config) *PitchTracker {
	frame := cfg.PitchFrame
	win := frame / 2
	minPeriod := int(math.Floor(float64(cfg.PitchRate) / cfg.PitchMaxHz))
	maxPeriod := min(int(math.Ceil(float64(cfg.PitchRate)/cfg.PitchMinHz)), frame-win-1)

	return &PitchTracker{
		rate:      cfg.PitchRate,
		frame:     frame,
		hop:       cfg.PitchHop,
		win:       win,
		minPeriod: max(minPeriod, 1),
		maxPeriod: maxPeriod,
		threshold: cfg.TroughThresh,
		fft:       fourier.NewFFT(frame),
	}
}

// Track returns one f0 estimate (Hz) per frame. samples must be at the
// tracker's rate.
func (p *PitchTracker) Track(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}

	padded := padCenter(samples, p.frame/2)
	n := 1 + (len(padded)-p.frame)/p.hop
	f0 := make([]float64, 0, n)

	// Scratch buffers
	window := make([]float64, p.frame)
	diff := make([]float64, p.maxPeriod+1)
	cmnd := make([]float64, p.maxPeriod-p.minPeriod+1)

	for i := 0; i < n; i++ {
		x := padded[i*p.hop : i*p.hop+p.frame]
		copy(window, x[:p.win])
		clear(window[p.win:])

		p.difference(x, window, diff)
		p.normalize(diff, cmnd)
		f0 = append(f0, p.estimate(cmnd))
	}
	return f0
}

// difference fills d(tau) = E(0) + E(tau) - 2*acf(tau) for tau in [0, maxPeriod]
func (p *PitchTracker) difference(x, window, diff []float64) {
	// Cross-correlation of the leading window against the frame
	a := p.fft.Coefficients(nil, x)
	b := p.fft.Coefficients(nil, window)
	for k := range a {
		a[k] *= complex(real(b[k]), -imag(b[k]))
	}
	acf := p.fft.Sequence(nil, a)
	scale := 1 / float64(p.frame) // Sequence is unnormalized

	// Sliding window energy via prefix sums
	prefix := make([]float64, len(x)+1)
	for j, s := range x {
		prefix[j+1] = prefix[j] + s*s
	}
	energy := func(tau int) float64 {
		e := prefix[tau+p.win] - prefix[tau]
		if math.Abs(e) < 1e-6 {
			return 0
		}
		return e
	}

	e0 := energy(0)
	for tau := 0; tau <= p.maxPeriod; tau++ {
		c := acf[tau] * scale
		if math.Abs(c) < 1e-6 {
			c = 0
		}
		diff[tau] = e0 + energy(tau) - 2*c
	}
}

// normalize applies the cumulative mean normalization over [minPeriod, maxPeriod]
func (p *PitchTracker) normalize(diff, cmnd []float64) {
	var cum float64
	for tau := 1; tau <= p.maxPeriod; tau++ {
		cum += diff[tau]
		if tau >= p.minPeriod {
			mean := cum / float64(tau)
			cmnd[tau-p.minPeriod] = diff[tau] / (mean + 1e-12)
		}
	}
}

// estimate picks the first trough below threshold, else the global minimum,
// refined by parabolic interpolation.
func (p *PitchTracker) estimate(cmnd []float64) float64 {
	best := -1
	for i := range cmnd {
		if cmnd[i] >= p.threshold || !isTrough(cmnd, i) {
			continue
		}
		best = i
		break
	}
	if best < 0 {
		best = 0
		for i := range cmnd {
			if cmnd[i] < cmnd[best] {
				best = i
			}
		}
	}

	period := float64(p.minPeriod+best) + parabolicShift(cmnd, best)
	return float64(p.rate) / period
}

func isTrough(x []float64, i int) bool {
	if i == 0 {
		return len(x) > 1 && x[0] < x[1]
	}
	if i == len(x)-1 {
		return x[i] < x[i-1]
	}
	return x[i] < x[i-1] && x[i] <= x[i+1]
}

func parabolicShift(x []float64, i int) float64 {
	if i <= 0 || i >= len(x)-1 {
		return 0
	}
	a := x[i+1] + x[i-1] - 2*x[i]
	b := (x[i+1] - x[i-1]) / 2
	if math.Abs(b) >= math.Abs(a) {
		return 0
	}
	return -b / a
}

// Signal holds variation statistics of a waveform
type Signal struct {
	EnergyStd float64
	PitchStd  float64
}

// MeasureSignal computes loudness and pitch variation of a waveform
func MeasureSignal(w audioio.Waveform, cfg Config) (Signal, error) {
	if w.Empty() {
		return Signal{}, audioio.ErrNoAudio
	}
	if len(w.Samples) < cfg.RMSHop {
		return Signal{}, ErrTooShort
	}

	rms := RMSEnvelope(w.Samples, cfg.RMSFrame, cfg.RMSHop)

	pitchInput := w.Resampled(cfg.PitchRate)
	f0 := NewPitchTracker(cfg).Track(pitchInput.Samples)

	finite := f0[:0]
	for _, v := range f0 {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	s := Signal{EnergyStd: stat.PopStdDev(rms, nil)}
	if len(finite) > 0 {
		s.PitchStd = stat.PopStdDev(finite, nil)
	}
	return s, nil
}

// Liveliness maps signal variation to a 0-100 score, half from loudness
// variation and half from pitch variation.
func (s Signal) Liveliness(cfg Config) float64 {
	energyScore := clamp(s.EnergyStd/cfg.EnergyStdNorm*50, 0, 50)
	pitchScore := clamp(s.PitchStd/cfg.PitchStdNormHz*50, 0, 50)
	return math.Min(100, energyScore+pitchScore)
}

// Features converts the signal statistics to reported audio features
func (s Signal) Features(cfg Config) AudioFeatures {
	live := s.Liveliness(cfg)
	return AudioFeatures{
		LivelinessScore: roundTo(live, 1),
		MonotonyScore:   roundTo(100-live, 1),
		PitchVariation:  roundTo(s.PitchStd, 2),
		EnergyVariation: roundTo(s.EnergyStd, 4),
	}
}

func padCenter(samples []float64, pad int) []float64 {
	out := make([]float64, len(samples)+2*pad)
	copy(out[pad:], samples)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
