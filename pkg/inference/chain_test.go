package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gulaysahinn/pitchmate-pro/internal/log"
)

func TestChainFallback(t *testing.T) {
	failing := WithError(errors.New("provider 1 failed"))
	working := NewMock("From working provider")

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("Failed to create chain: %v", err)
	}
	defer chain.Close()

	resp, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("test")}})
	if err != nil {
		t.Fatalf("Chain chat failed: %v", err)
	}
	if resp.Message.Content != "From working provider" {
		t.Errorf("Unexpected response: %s", resp.Message.Content)
	}
	if !working.Closed() {
		t.Error("Close should close every provider")
	}
}

func TestChainAllFail(t *testing.T) {
	chain, _ := NewChain(WithError(errors.New("provider 1 failed")), WithError(errors.New("provider 2 failed")))

	_, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("test")}})

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("Expected ChainError, got %T", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(chainErr.Errors))
	}
	if chainErr.Unwrap().Error() != "provider 2 failed" {
		t.Errorf("Unwrap should return the last error, got %v", chainErr.Unwrap())
	}
}

func TestChainHealth(t *testing.T) {
	healthy, _ := NewChain(WithError(errors.New("down")), NewMock("ok"))
	if err := healthy.Health(context.Background()); err != nil {
		t.Errorf("one healthy provider should be enough: %v", err)
	}

	down, _ := NewChain(WithError(errors.New("down")))
	if err := down.Health(context.Background()); err == nil {
		t.Error("expected error when every provider is down")
	}

	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestGeminiChain_ModelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "gemini-2.0-flash") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"retired","status":"NOT_FOUND"}}`))
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"fallback"}]}}]}`))
	}))
	defer server.Close()

	chain, err := NewGeminiChain([]string{"gemini-2.0-flash", "gemini-1.5-flash"},
		WithAPIKey("k"), WithBaseURL(server.URL), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewGeminiChain: %v", err)
	}
	defer chain.Close()

	if len(chain.Providers()) != 2 {
		t.Fatalf("providers = %d, want 2", len(chain.Providers()))
	}

	resp, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "fallback" || resp.Model != "gemini-1.5-flash" {
		t.Errorf("got %q from %s", resp.Message.Content, resp.Model)
	}

	if _, err := NewGeminiChain(nil, WithAPIKey("k")); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}
