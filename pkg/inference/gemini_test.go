package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc, opts ...Option) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
		WithRetry(2, time.Millisecond),
		WithLogger(log.Discard()),
	}, opts...)

	g, err := NewGemini(opts...)
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGeminiChat(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing API key header")
		}

		var payload struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			GenerationConfig struct {
				MaxOutputTokens int `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
			return
		}
		if len(payload.Contents) != 1 || payload.Contents[0].Role != "user" {
			t.Errorf("system message should not be sent as content: %+v", payload.Contents)
		}
		if len(payload.SystemInstruction.Parts) != 1 || payload.SystemInstruction.Parts[0].Text != "be brief" {
			t.Errorf("systemInstruction = %+v", payload.SystemInstruction)
		}
		if payload.GenerationConfig.MaxOutputTokens != 300 {
			t.Errorf("maxOutputTokens = %d, want default 300", payload.GenerationConfig.MaxOutputTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"Harika "},{"text":"bir sunum!"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4,"totalTokenCount":16}
		}`))
	})

	resp, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewSystemMessage("be brief"), NewUserMessage("hello")},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "Harika bir sunum!" || resp.Message.Role != RoleAssistant {
		t.Errorf("Message = %+v", resp.Message)
	}
	if resp.Usage.TotalTokens != 16 || resp.FinishReason != "STOP" || resp.Model != "gemini-2.0-flash" {
		t.Errorf("response metadata = %+v", resp)
	}
}

func TestGeminiRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	resp, err := g.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "ok" || attempts.Load() != 3 {
		t.Errorf("content=%q attempts=%d", resp.Message.Content, attempts.Load())
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		attempts  int32
	}{
		{"bad key", http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`, false, 1},
		{"model missing", http.StatusNotFound, `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`, false, 1},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, true, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var attempts atomic.Int32
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := g.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != tc.status || apiErr.IsRetryable() != tc.retryable || apiErr.Code == "" {
				t.Errorf("APIError = %+v", apiErr)
			}
			if attempts.Load() != tc.attempts {
				t.Errorf("attempts = %d, want %d", attempts.Load(), tc.attempts)
			}
		})
	}
}

func TestGeminiEmptyResponse(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewGemini_Validation(t *testing.T) {
	if _, err := NewGemini(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewGemini(WithAPIKey("k"), WithModel("")); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status       int
		retryable    bool
		unauthorized bool
	}{
		{429, true, false},
		{500, true, false},
		{503, true, false},
		{401, false, true},
		{403, false, true},
		{400, false, false},
	}
	for _, tc := range tests {
		err := &APIError{StatusCode: tc.status, Message: "x", Provider: "test"}
		if err.IsRetryable() != tc.retryable || err.IsUnauthorized() != tc.unauthorized {
			t.Errorf("status %d: retryable=%v unauthorized=%v", tc.status, err.IsRetryable(), err.IsUnauthorized())
		}
		if err.Error() == "" {
			t.Error("empty error string")
		}
	}
}
