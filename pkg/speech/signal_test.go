package speech

import (
	"math"
	"testing"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
)

func TestRMSEnvelope(t *testing.T) {
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = 0.5
	}

	rms := RMSEnvelope(samples, 2048, 512)
	if len(rms) != 1+4096/512 {
		t.Fatalf("frames = %d, want %d", len(rms), 1+4096/512)
	}
	// Fully inside the signal
	if math.Abs(rms[4]-0.5) > 1e-9 {
		t.Errorf("interior rms = %f, want 0.5", rms[4])
	}
	// Centered first frame is half padding
	if math.Abs(rms[0]-0.5*math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("edge rms = %f, want %f", rms[0], 0.5*math.Sqrt(0.5))
	}

	if RMSEnvelope(nil, 2048, 512) != nil {
		t.Error("empty input should give no frames")
	}
}

func TestPitchTracker_Sine(t *testing.T) {
	cfg := DefaultConfig()
	tracker := NewPitchTracker(cfg)

	for _, freq := range []float64{110, 200, 280} {
		w := audioio.Sine(freq, 0.5, 1, cfg.PitchRate)
		f0 := tracker.Track(w.Samples)

		// Skip padded edge frames
		for i := 8; i < len(f0)-8; i++ {
			if math.Abs(f0[i]-freq) > 2 {
				t.Fatalf("%.0f Hz: frame %d estimated %.2f Hz", freq, i, f0[i])
			}
		}
	}
}

func TestPitchTracker_SilenceIsFinite(t *testing.T) {
	cfg := DefaultConfig()
	f0 := NewPitchTracker(cfg).Track(make([]float64, cfg.PitchRate/2))
	for i, v := range f0 {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			t.Fatalf("frame %d: non-finite estimate %f", i, v)
		}
	}
}

func TestMeasureSignal_MonotoneVsExpressive(t *testing.T) {
	cfg := DefaultConfig()

	flat, err := MeasureSignal(audioio.Sine(180, 0.5, 10, 16000), cfg)
	if err != nil {
		t.Fatalf("MeasureSignal(flat): %v", err)
	}
	lively, err := MeasureSignal(audioio.Expressive(120, 240, 0.8, 1, 10, 16000), cfg)
	if err != nil {
		t.Fatalf("MeasureSignal(lively): %v", err)
	}

	if flat.PitchStd > 15 {
		t.Errorf("monotone pitch std = %.2f, want small", flat.PitchStd)
	}
	if lively.PitchStd < 25 {
		t.Errorf("gliding pitch std = %.2f, want large", lively.PitchStd)
	}
	if lively.EnergyStd < 5*flat.EnergyStd {
		t.Errorf("energy std: lively %.4f vs flat %.4f", lively.EnergyStd, flat.EnergyStd)
	}

	fl, ll := flat.Liveliness(cfg), lively.Liveliness(cfg)
	if ll < 70 || fl > 40 || ll-fl < 30 {
		t.Errorf("liveliness flat=%.1f lively=%.1f", fl, ll)
	}
}

func TestMeasureSignal_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := MeasureSignal(audioio.Waveform{}, cfg); err == nil {
		t.Error("expected error for empty waveform")
	}
	if _, err := MeasureSignal(audioio.Waveform{Samples: make([]float64, 10), SampleRate: 16000}, cfg); err == nil {
		t.Error("expected error for very short waveform")
	}
}

func TestSignal_Features(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		sig      Signal
		live     float64
		monotony float64
	}{
		{"silent", Signal{}, 0, 100},
		{"typical", Signal{EnergyStd: 0.04, PitchStd: 20}, 50, 50},
		{"capped", Signal{EnergyStd: 1, PitchStd: 400}, 100, 0},
		{"rounded", Signal{EnergyStd: 0.012345, PitchStd: 12.3456}, 23.1, 76.9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.sig.Features(cfg)
			if f.LivelinessScore != tc.live || f.MonotonyScore != tc.monotony {
				t.Errorf("got live=%.1f monotony=%.1f, want %.1f/%.1f", f.LivelinessScore, f.MonotonyScore, tc.live, tc.monotony)
			}
		})
	}

	f := Signal{EnergyStd: 0.012345, PitchStd: 12.3456}.Features(cfg)
	if f.EnergyVariation != 0.0123 || f.PitchVariation != 12.35 {
		t.Errorf("rounding: energy=%v pitch=%v", f.EnergyVariation, f.PitchVariation)
	}
}

func TestCalibrate(t *testing.T) {
	cfg := DefaultConfig()
	const rate = 16000

	silent := Calibrate(audioio.Silence(2, rate), cfg)
	if silent.Voiced || silent.PeakDBFS > cfg.SilenceDBFS {
		t.Errorf("digital silence should not be voiced: %+v", silent)
	}
	if silent.ThresholdDBFS != cfg.MinSpeechDBFS {
		t.Errorf("threshold = %.1f, want floor clamp %.1f", silent.ThresholdDBFS, cfg.MinSpeechDBFS)
	}

	// Steady hum at the noise floor stays below floor+margin
	hum := audioio.Sine(60, 0.05, 2, rate)
	if Calibrate(hum, cfg).Voiced {
		t.Error("constant hum should not be voiced")
	}

	talk := audioio.Concat(audioio.Sine(60, 0.05, 0.5, rate), audioio.Sine(200, 0.4, 1, rate))
	cal := Calibrate(talk, cfg)
	if !cal.Voiced {
		t.Error("speech after quiet lead-in should be voiced")
	}
	if cal.Offset != int(cfg.CalibrationWindow/time.Millisecond)*rate/1000 {
		t.Errorf("Offset = %d, want %d", cal.Offset, rate/2)
	}

	short := Calibrate(audioio.Sine(200, 0.4, 0.2, rate), cfg)
	if short.Voiced || short.Offset != int(0.2*rate) {
		t.Errorf("clip shorter than the window: %+v", short)
	}
}
