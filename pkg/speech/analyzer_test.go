package speech

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
)

// voiced builds n samples at 16kHz: half a second of silence, then a tone
func voiced(n int) audioio.Waveform {
	w := audioio.Waveform{Samples: make([]float64, n), SampleRate: 16000}
	for i := 8000; i < n; i++ {
		w.Samples[i] = 0.4 * math.Sin(2*math.Pi*200*float64(i)/16000)
	}
	return w
}

func newTestAnalyzer(t *testing.T, w audioio.Waveform, tr Transcriber) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(audioio.NewMockLoader(w), tr, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return a
}

func TestAnalyze_FastSpeakerWithFillers(t *testing.T) {
	// 4 words in 21333 samples (1.333s) is 180 words per minute
	tr := &MockTranscriber{Text: "şey yani çok hızlı"}
	a := newTestAnalyzer(t, voiced(21333), tr)

	f := a.Analyze(context.Background(), "talk.wav")

	if f.Status != StatusOK {
		t.Errorf("Status = %s, want ok", f.Status)
	}
	if f.WordCount != 4 || f.SpeakingRate.WordsPerMinute != 180 {
		t.Errorf("words=%d wpm=%d, want 4 / 180", f.WordCount, f.SpeakingRate.WordsPerMinute)
	}
	if f.FillerWords.Count < 2 {
		t.Errorf("filler count = %d, want >= 2", f.FillerWords.Count)
	}
	if f.DurationSeconds != 1.33 {
		t.Errorf("DurationSeconds = %v, want 1.33", f.DurationSeconds)
	}

	// Calibration window is not sent to the service
	calls := tr.Calls()
	if len(calls) != 1 || len(calls[0].Samples) != 21333-8000 {
		t.Fatalf("transcriber calls = %d, want 1 call with the post-calibration audio", len(calls))
	}
}

func TestAnalyze_SilenceSkipsService(t *testing.T) {
	tr := &MockTranscriber{Text: "should not be used"}
	a := newTestAnalyzer(t, audioio.Silence(3, 16000), tr)

	f := a.Analyze(context.Background(), "quiet.wav")

	if f.Status != StatusSilent {
		t.Errorf("Status = %s, want silent", f.Status)
	}
	if len(tr.Calls()) != 0 {
		t.Error("transcriber should not be called for silence")
	}
	if f.Transcript != "" || f.SpeakingRate.WordsPerMinute != 0 || f.DurationSeconds != 3 {
		t.Errorf("unexpected features %+v", f)
	}
}

func TestAnalyze_QuietSpeechIsStillTranscribed(t *testing.T) {
	// About -51 dBFS: below the speech threshold but far from digital silence
	quiet := audioio.Concat(audioio.Silence(0.5, 16000), audioio.Sine(200, 0.004, 1.5, 16000))
	tr := &MockTranscriber{Text: "merhaba arkadaşlar"}
	a := newTestAnalyzer(t, quiet, tr)

	f := a.Analyze(context.Background(), "quiet-talk.wav")

	if f.Status != StatusOK {
		t.Errorf("Status = %s, want ok", f.Status)
	}
	if len(tr.Calls()) != 1 {
		t.Fatalf("transcriber calls = %d, want 1", len(tr.Calls()))
	}
	if len(f.Warnings) != 1 || !strings.Contains(f.Warnings[0], "noise") {
		t.Errorf("Warnings = %v, want one low-level warning", f.Warnings)
	}
	if f.WordCount != 2 {
		t.Errorf("WordCount = %d, want 2", f.WordCount)
	}
}

func TestAnalyze_TranscriptionFailureIsNotFatal(t *testing.T) {
	tr := &MockTranscriber{Err: errors.New("quota exceeded")}
	a := newTestAnalyzer(t, voiced(48000), tr)

	f := a.Analyze(context.Background(), "talk.wav")

	if f.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", f.Status)
	}
	if len(f.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one transcription warning", f.Warnings)
	}
	if f.Transcript != "" || f.WordCount != 0 || f.FillerWords.Count != 0 {
		t.Errorf("text metrics should be zero: %+v", f)
	}
	// Duration and signal features are independent of transcription
	if f.DurationSeconds != 3 || f.AudioFeatures.EnergyVariation == 0 {
		t.Errorf("signal metrics missing: %+v", f.AudioFeatures)
	}
}

func TestAnalyze_NoSpeechRecognized(t *testing.T) {
	a := newTestAnalyzer(t, voiced(32000), &MockTranscriber{Err: ErrNoSpeech})
	if f := a.Analyze(context.Background(), "mumble.wav"); f.Status != StatusUnintelligible || len(f.Warnings) != 0 {
		t.Errorf("got status %s warnings %v", f.Status, f.Warnings)
	}
}

func TestAnalyze_NoTranscriber(t *testing.T) {
	a := newTestAnalyzer(t, voiced(32000), nil)
	if f := a.Analyze(context.Background(), "talk.wav"); f.Status != StatusSkipped {
		t.Errorf("Status = %s, want skipped", f.Status)
	}
}

func TestAnalyze_UnreadableAudio(t *testing.T) {
	loader := audioio.NewMockLoader(audioio.Waveform{}, audioio.WithLoadError(errors.New("corrupt header")))
	a, err := NewAnalyzer(loader, &MockTranscriber{}, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	f := a.Analyze(context.Background(), "broken.wav")
	if f.Status != StatusUnreadable || len(f.Warnings) != 1 {
		t.Errorf("got status %s warnings %v", f.Status, f.Warnings)
	}
	if f.AudioFeatures != (AudioFeatures{}) || f.FillerWords.List == nil {
		t.Errorf("expected zero features with initialized containers: %+v", f)
	}
}

func TestNewAnalyzer_Validation(t *testing.T) {
	if _, err := NewAnalyzer(nil, nil); err == nil {
		t.Error("expected error for missing loader")
	}

	cfg := DefaultConfig()
	cfg.PitchMaxHz = 50
	if _, err := NewAnalyzer(audioio.NewMockLoader(audioio.Waveform{}), nil, WithConfig(cfg)); err == nil {
		t.Error("expected error for inverted pitch band")
	}
}

func TestConfig_Language(t *testing.T) {
	tests := map[string]string{"tr-TR": "tr", "en-US": "en", "de": "de"}
	for code, want := range tests {
		c := DefaultConfig()
		c.LanguageCode = code
		if got := c.Language(); got != want {
			t.Errorf("Language(%s) = %s, want %s", code, got, want)
		}
	}
}

func TestResult(t *testing.T) {
	absent := Absent()
	if absent.IsPresent() {
		t.Error("Absent should not be present")
	}
	if z := absent.OrZero(); z.Transcript != "" || z.FillerWords.List == nil || z.Warnings == nil {
		t.Errorf("zero placeholder not initialized: %+v", z)
	}

	present := Present(Features{Transcript: "merhaba"})
	if f, ok := present.Features(); !ok || f.Transcript != "merhaba" {
		t.Errorf("Present lost features: %+v %v", f, ok)
	}
}
