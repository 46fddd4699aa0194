package audioio

import (
	"math"
	"testing"
)

func tone(freq float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return out
}

// rmsBetween measures the middle of a signal, away from filter edges
func rmsBetween(s []float64, from, to int) float64 {
	var sum float64
	for _, v := range s[from:to] {
		sum += v * v
	}
	return math.Sqrt(sum / float64(to-from))
}

func TestResampleFloat_Lengths(t *testing.T) {
	samples := make([]float64, 480)

	if got := len(ResampleFloat(samples, 48000, 16000)); got != 160 {
		t.Errorf("Expected 160 samples after downsampling, got %d", got)
	}
	if got := len(ResampleFloat(samples, 16000, 24000)); got != 720 {
		t.Errorf("Expected 720 samples after upsampling, got %d", got)
	}
	if same := ResampleFloat(samples, 16000, 16000); len(same) != len(samples) {
		t.Error("Same rate should return input unchanged")
	}
	if out := ResampleFloat(nil, 48000, 16000); len(out) != 0 {
		t.Error("Expected empty result for nil input")
	}
}

func TestResampleFloat_KeepsConstant(t *testing.T) {
	samples := make([]float64, 960)
	for i := range samples {
		samples[i] = 0.25
	}
	for i, v := range ResampleFloat(samples, 48000, 16000) {
		if math.Abs(v-0.25) > 1e-9 {
			t.Fatalf("Sample %d: expected 0.25, got %f", i, v)
		}
	}
}

func TestResampleFloat_PassesSpeechBand(t *testing.T) {
	in := tone(1000, 48000, 48000)
	out := ResampleFloat(in, 48000, 16000)

	got := rmsBetween(out, 1000, len(out)-1000)
	if math.Abs(got-math.Sqrt2/2) > 0.02 {
		t.Errorf("Expected a 1 kHz tone to pass at ~0.707 RMS, got %f", got)
	}
}

func TestResampleFloat_RemovesAliases(t *testing.T) {
	// 12 kHz is above the 8 kHz Nyquist of the target rate and would
	// otherwise fold back to 4 kHz
	in := tone(12000, 48000, 48000)
	out := ResampleFloat(in, 48000, 16000)

	if got := rmsBetween(out, 1000, len(out)-1000); got > 0.02 {
		t.Errorf("Expected 12 kHz content to be filtered out, got RMS %f", got)
	}
}

func TestLowPass_InvalidCutoff(t *testing.T) {
	in := []float64{1, -1, 1, -1}
	for _, cutoff := range []float64{0, 0.5, 0.7} {
		out := LowPass(in, cutoff, 31)
		if &out[0] != &in[0] {
			t.Errorf("Cutoff %v: expected input returned unchanged", cutoff)
		}
	}
}

func TestBytesToSamples(t *testing.T) {
	samples := BytesToSamples([]byte{0x02, 0x01, 0xff, 0xff, 0x07})

	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 0x0102 {
		t.Errorf("Sample 0: expected 0x0102, got 0x%04x", samples[0])
	}
	if samples[1] != -1 {
		t.Errorf("Sample 1: expected -1, got %d", samples[1])
	}
}

func TestSamplesToBytes_RoundTripsExtremes(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	out := BytesToSamples(SamplesToBytes(in))
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	mono := StereoToMono([]int16{100, 300, -32768, -32768, 7})

	if len(mono) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(mono))
	}
	if mono[0] != 200 || mono[1] != -32768 {
		t.Errorf("Expected [200 -32768], got %v", mono)
	}
}

func TestSamplesToFloat(t *testing.T) {
	f := SamplesToFloat([]int16{0, 16384, -32768})
	want := []float64{0, 0.5, -1}
	for i := range want {
		if f[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], f[i])
		}
	}
}

func TestFloatToSamples_Clips(t *testing.T) {
	s := FloatToSamples([]float64{2, -2, 0})
	if s[0] != 32767 || s[1] != -32768 || s[2] != 0 {
		t.Errorf("Expected [32767 -32768 0], got %v", s)
	}
}

func BenchmarkResampleFloat_48kTo16k(b *testing.B) {
	samples := tone(440, 48000, 48000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ResampleFloat(samples, 48000, 16000)
	}
}
