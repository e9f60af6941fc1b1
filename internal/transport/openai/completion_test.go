package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, answer string, captured *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, captured); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": answer}},
			},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 12},
		})
	}))
}

func TestCompleter_Complete(t *testing.T) {
	var captured chatRequest
	server := completionServer(t, "You wrote about sleep three times.", &captured)
	defer server.Close()

	c := NewCompleter(&CompleterConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	result, err := c.Complete(context.Background(), domain.CompletionRequest{
		System: "You answer questions about the user's journal.",
		Prompt: "How did I sleep this week?",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if result.Text != "You wrote about sleep three times." {
		t.Errorf("unexpected answer: %q", result.Text)
	}
	if result.PromptTokens != 30 || result.CompletionTokens != 12 {
		t.Errorf("unexpected usage: %+v", result)
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("unexpected roles: %+v", captured.Messages)
	}
}

func TestCompleter_TrimsHistory(t *testing.T) {
	var captured chatRequest
	server := completionServer(t, "ok", &captured)
	defer server.Close()

	c := NewCompleter(&CompleterConfig{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		Model:           "test-model",
		MaxHistoryTurns: 2,
		MessageCapChars: 10,
		Logger:          zap.NewNop(),
	})

	history := []domain.ChatTurn{
		{Role: "user", Content: "oldest question"},
		{Role: "assistant", Content: "oldest answer"},
		{Role: "user", Content: "recent question"},
		{Role: "assistant", Content: strings.Repeat("x", 100)},
	}
	if _, err := c.Complete(context.Background(), domain.CompletionRequest{
		History: history,
		Prompt:  "next",
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// 2 kept history turns + final prompt, no system message.
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Content != "recent que"[:10] {
		t.Errorf("expected most recent turns kept and capped, got %q", captured.Messages[0].Content)
	}
	if got := captured.Messages[1].Content; len(got) != 10 {
		t.Errorf("expected history message capped at 10 chars, got %d", len(got))
	}
	if captured.Messages[2].Content != "next" {
		t.Errorf("prompt must never be capped, got %q", captured.Messages[2].Content)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "q"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Errorf("expected provider sentinel in chain, got %v", err)
	}
}
