package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
	"github.com/gulaysahinn/pitchmate-pro/pkg/session"
)

// Commentary prompts, keyed by language.
var prompts = map[string]string{
	"tr": `Sen "PitchMate"sin, bir sunum koçusun. Analiz verilerine bakarak kullanıcıya çok kısa (en fazla 3 madde) geri bildirim ver.
Kurallar:
1. Asla uzun paragraflar yazma.
2. Samimi ve motive edici ol.
3. Sadece en kritik hatayı veya en iyi yönü vurgula.`,
	"en": `You are "PitchMate", a presentation coach. Looking at the analysis data, give the user very short feedback (at most 3 bullet points).
Rules:
1. Never write long paragraphs.
2. Be warm and motivating.
3. Highlight only the most critical mistake or the strongest point.`,
}

// Commentator turns a finished report into a short coaching note.
type Commentator struct {
	provider Provider
	catalog  feedback.Catalog
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

// CommentatorOption configures a Commentator.
type CommentatorOption func(*Commentator)

// WithLanguage selects the prompt language ("tr" or "en").
func WithLanguage(lang string) CommentatorOption {
	return func(c *Commentator) { c.language = lang }
}

// WithCommentTimeout bounds one commentary request.
func WithCommentTimeout(d time.Duration) CommentatorOption {
	return func(c *Commentator) { c.timeout = d }
}

// WithCommentLogger sets the logger.
func WithCommentLogger(l *slog.Logger) CommentatorOption {
	return func(c *Commentator) { c.logger = l }
}

// NewCommentator creates a Commentator. provider may be nil, in which case
// every report gets the catalog's fallback text.
func NewCommentator(provider Provider, catalog feedback.Catalog, opts ...CommentatorOption) *Commentator {
	c := &Commentator{
		provider: provider,
		catalog:  catalog,
		language: feedback.DefaultLanguage,
		timeout:  30 * time.Second,
		logger:   slog.Default().With("component", "inference.commentary"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Comment returns the commentary for r. It never fails: when no words were
// recognized it returns the microphone hint without calling the model, and
// when the model call fails it returns the fallback text.
func (c *Commentator) Comment(ctx context.Context, r *session.Report) string {
	if r.SpeechData.WordCount == 0 {
		return c.catalog.NoSpeech
	}
	if c.provider == nil {
		return c.catalog.CommentaryUnavailable
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system, ok := prompts[c.language]
	if !ok {
		system = prompts[feedback.DefaultLanguage]
	}

	resp, err := c.provider.Chat(ctx, &ChatRequest{
		Messages: []Message{
			NewSystemMessage(system),
			NewUserMessage(Facts(r)),
		},
	})
	if err != nil {
		c.logger.Warn("commentary failed, using fallback", "session", r.SessionID, "error", err)
		return c.catalog.CommentaryUnavailable
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return c.catalog.CommentaryUnavailable
	}

	c.logger.Debug("commentary generated", "session", r.SessionID, "model", resp.Model, "latency_ms", resp.LatencyMs)
	return text
}

// Facts renders the report figures the model comments on.
func Facts(r *session.Report) string {
	sd := r.SpeechData

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transcript: %q\n", sd.Transcript)
	fmt.Fprintf(&sb, "Pace: %d words/min\n", sd.SpeakingRate.WordsPerMinute)
	fmt.Fprintf(&sb, "Filler words: %d", sd.FillerWords.Count)
	if summary := sd.FillerWords.Summary(); summary != "" {
		fmt.Fprintf(&sb, " (%s)", summary)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Eye contact: %.1f/100\n", r.EyeScore)
	fmt.Fprintf(&sb, "Body language: %.1f/100\n", r.BodyScore)
	fmt.Fprintf(&sb, "Vocal liveliness: %.1f/100\n", sd.AudioFeatures.LivelinessScore)
	fmt.Fprintf(&sb, "Overall: %.1f/100", r.OverallScore)
	return sb.String()
}
