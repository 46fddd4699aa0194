package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gulaysahinn/pitchmate-pro/pkg/feedback"
)

// maxTurns bounds how much earlier conversation is replayed to the model
const maxTurns = 10

var coachPrompts = map[string]string{
	"tr": "Sen profesyonel bir sunum koçusun. Kısa, motive edici ve Türkçe cevaplar ver.",
	"en": "You are a professional presentation coach. Give short, motivating answers in English.",
}

var coachLabels = map[string][3]string{
	"tr": {"Analiz Verileri", "Soru", "Bağlam yok."},
	"en": {"Analysis data", "Question", "No context."},
}

// Question is one message to the presentation coach.
type Question struct {
	// Text is the user's question.
	Text string

	// Background is the analysis the question refers to, usually Facts of
	// a stored report. Empty means no context.
	Background string

	// History holds earlier user and assistant turns, oldest first. Other
	// roles are ignored.
	History []Message
}

// Ask answers a coaching question. Like Comment it never fails: a rate
// limited model gets the catalog's quota text and any other failure the
// unavailable text.
func (c *Commentator) Ask(ctx context.Context, q Question) string {
	if c.provider == nil {
		return c.catalog.ChatUnavailable
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	lang := c.language
	if _, ok := coachPrompts[lang]; !ok {
		lang = feedback.DefaultLanguage
	}
	labels := coachLabels[lang]

	background := strings.TrimSpace(q.Background)
	if background == "" {
		background = labels[2]
	}

	messages := []Message{NewSystemMessage(coachPrompts[lang])}
	history := q.History
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	for _, m := range history {
		if (m.Role == RoleUser || m.Role == RoleAssistant) && strings.TrimSpace(m.Content) != "" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, NewUserMessage(fmt.Sprintf("%s: %s\n\n%s: %s",
		labels[0], background, labels[1], strings.TrimSpace(q.Text))))

	resp, err := c.provider.Chat(ctx, &ChatRequest{Messages: messages})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
			c.logger.Warn("coach rate limited", "error", err)
			return c.catalog.ChatRateLimited
		}
		c.logger.Warn("coach failed, using fallback", "error", err)
		return c.catalog.ChatUnavailable
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return c.catalog.ChatUnavailable
	}
	return text
}
