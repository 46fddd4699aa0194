package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/pkg/audioio"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sttv1 "google.golang.org/api/speech/v1"
)

// Google Speech-to-Text limits for synchronous recognition
const (
	googleRate      = 16000
	syncMaxDuration = 55 * time.Second
)

// GoogleConfig configures the Google Speech-to-Text transcriber
type GoogleConfig struct {
	APIKey       string        // Uses application default credentials when empty
	PollInterval time.Duration // Long-running operation poll interval (default 2s)
	Options      []option.ClientOption
	Logger       *slog.Logger
}

// GoogleTranscriber uses the Cloud Speech-to-Text v1 REST API
type GoogleTranscriber struct {
	service      *sttv1.Service
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewGoogleTranscriber creates a transcriber authenticated with an API key,
// or with application default credentials when no key is set.
func NewGoogleTranscriber(ctx context.Context, cfg GoogleConfig) (*GoogleTranscriber, error) {
	opts := append([]option.ClientOption(nil), cfg.Options...)

	switch {
	case len(cfg.Options) > 0:
		// Caller supplied transport/auth
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, sttv1.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	}

	service, err := sttv1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech service: %w", err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &GoogleTranscriber{
		service:      service,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger.With("component", "google-stt"),
	}, nil
}

// Transcribe sends LINEAR16 audio at 16kHz. Recordings longer than the
// synchronous limit go through long-running recognition.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio audioio.Waveform, languageCode string) (Transcript, error) {
	if audio.Empty() {
		return Transcript{}, ErrNoSpeech
	}

	pcm := audio.Resampled(googleRate).PCM16()
	config := &sttv1.RecognitionConfig{
		Encoding:                   "LINEAR16",
		SampleRateHertz:            googleRate,
		AudioChannelCount:          1,
		LanguageCode:               languageCode,
		EnableAutomaticPunctuation: true,
	}
	content := &sttv1.RecognitionAudio{Content: base64.StdEncoding.EncodeToString(pcm)}

	start := time.Now()
	var results []*sttv1.SpeechRecognitionResult
	var err error

	if time.Duration(audio.Duration()*float64(time.Second)) <= syncMaxDuration {
		results, err = g.recognize(ctx, config, content)
	} else {
		results, err = g.recognizeLong(ctx, config, content)
	}
	if err != nil {
		return Transcript{}, wrapGoogleError(err)
	}

	t := joinResults(results)
	g.logger.Debug("transcription finished",
		"duration", time.Since(start),
		"audio_seconds", audio.Duration(),
		"chars", len(t.Text),
	)

	if t.Text == "" {
		return t, ErrNoSpeech
	}
	return t, nil
}

func (g *GoogleTranscriber) recognize(ctx context.Context, config *sttv1.RecognitionConfig, audio *sttv1.RecognitionAudio) ([]*sttv1.SpeechRecognitionResult, error) {
	resp, err := g.service.Speech.Recognize(&sttv1.RecognizeRequest{
		Config: config,
		Audio:  audio,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (g *GoogleTranscriber) recognizeLong(ctx context.Context, config *sttv1.RecognitionConfig, audio *sttv1.RecognitionAudio) ([]*sttv1.SpeechRecognitionResult, error) {
	op, err := g.service.Speech.Longrunningrecognize(&sttv1.LongRunningRecognizeRequest{
		Config: config,
		Audio:  audio,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		op, err = g.service.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
	}

	if op.Error != nil {
		return nil, fmt.Errorf("recognition operation failed: %s (code %d)", op.Error.Message, op.Error.Code)
	}

	var resp sttv1.LongRunningRecognizeResponse
	if len(op.Response) > 0 {
		if err := json.Unmarshal(op.Response, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode operation response: %w", err)
		}
	}
	return resp.Results, nil
}

// joinResults concatenates the top alternative of every result
func joinResults(results []*sttv1.SpeechRecognitionResult) Transcript {
	var parts []string
	var conf float64
	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if text := strings.TrimSpace(alt.Transcript); text != "" {
			parts = append(parts, text)
			conf += alt.Confidence
		}
	}

	t := Transcript{Text: strings.Join(parts, " ")}
	if len(parts) > 0 {
		t.Confidence = conf / float64(len(parts))
	}
	return t
}

func wrapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("speech API error (status %d): %s: %w", gerr.Code, gerr.Message, err)
	}
	return fmt.Errorf("speech request failed: %w", err)
}

var _ Transcriber = (*GoogleTranscriber)(nil)
