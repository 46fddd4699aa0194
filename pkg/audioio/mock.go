package audioio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// MockLoader is a mock audio loader for testing.
// It returns a synthetic waveform (or an error) for every path.
type MockLoader struct {
	mu       sync.Mutex
	waveform Waveform
	err      error
	lastPath string

	// Stats
	loads atomic.Int64
}

// MockLoaderOption configures a MockLoader.
type MockLoaderOption func(*MockLoader)

// WithLoadError makes every Load fail with err.
func WithLoadError(err error) MockLoaderOption {
	return func(m *MockLoader) {
		m.err = err
	}
}

// NewMockLoader creates a mock loader returning w.
func NewMockLoader(w Waveform, opts ...MockLoaderOption) *MockLoader {
	m := &MockLoader{waveform: w}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the configured waveform.
func (m *MockLoader) Load(ctx context.Context, path string) (Waveform, error) {
	m.loads.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPath = path

	if err := ctx.Err(); err != nil {
		return Waveform{}, err
	}
	if m.err != nil {
		return Waveform{}, m.err
	}
	return m.waveform, nil
}

// Name returns "mock".
func (m *MockLoader) Name() string { return string(BackendMock) }

// Loads returns how many times Load was called.
func (m *MockLoader) Loads() int64 { return m.loads.Load() }

// LastPath returns the path of the most recent Load.
func (m *MockLoader) LastPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPath
}

// Silence generates seconds of digital silence.
func Silence(seconds float64, rate int) Waveform {
	return Waveform{
		Samples:    make([]float64, int(seconds*float64(rate))),
		SampleRate: rate,
	}
}

// Sine generates a constant-frequency, constant-amplitude tone.
func Sine(frequency, amplitude, seconds float64, rate int) Waveform {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(rate))
	}
	return Waveform{Samples: samples, SampleRate: rate}
}

// Expressive generates a voice-like tone whose pitch glides between lowHz and
// highHz and whose loudness swells and fades, once per period seconds.
func Expressive(lowHz, highHz, amplitude, period, seconds float64, rate int) Waveform {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	mid := (lowHz + highHz) / 2
	depth := (highHz - lowHz) / 2

	var phase float64
	for i := range samples {
		t := float64(i) / float64(rate)
		lfo := math.Sin(2 * math.Pi * t / period)
		freq := mid + depth*lfo
		env := amplitude * (0.55 + 0.45*math.Cos(2*math.Pi*t/period))

		phase += 2 * math.Pi * freq / float64(rate)
		samples[i] = env * math.Sin(phase)
	}
	return Waveform{Samples: samples, SampleRate: rate}
}

// Concat joins waveforms of the same rate.
func Concat(parts ...Waveform) Waveform {
	var out Waveform
	for _, p := range parts {
		if out.SampleRate == 0 {
			out.SampleRate = p.SampleRate
		}
		out.Samples = append(out.Samples, p.Samples...)
	}
	return out
}
