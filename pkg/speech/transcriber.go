package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
)

// Sentinel errors
var (
	ErrNoCredentials = errors.New("speech: no API key or application default credentials")
	ErrNoSpeech      = errors.New("speech: service recognized no speech")
)

// Transcript is the text recognized in a recording
type Transcript struct {
	Text       string
	Confidence float64 // Mean confidence of the chosen alternatives (0-1)
}

// Transcriber converts speech audio to text
type Transcriber interface {
	// Transcribe recognizes the whole waveform. languageCode is BCP-47 ("tr-TR").
	// Implementations return ErrNoSpeech when the audio holds no recognizable words.
	Transcribe(ctx context.Context, audio audioio.Waveform, languageCode string) (Transcript, error)
}

// MockTranscriber returns a fixed transcript, for tests
type MockTranscriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []audioio.Waveform
}

// Transcribe records the call and returns the configured result
func (m *MockTranscriber) Transcribe(ctx context.Context, audio audioio.Waveform, languageCode string) (Transcript, error) {
	m.mu.Lock()
	m.calls = append(m.calls, audio)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}
	if m.Err != nil {
		return Transcript{}, m.Err
	}
	return Transcript{Text: m.Text, Confidence: 0.9}, nil
}

// Calls returns the waveforms passed to Transcribe
func (m *MockTranscriber) Calls() []audioio.Waveform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audioio.Waveform(nil), m.calls...)
}
