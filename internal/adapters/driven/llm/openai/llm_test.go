package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMServiceRequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestChatReturnsTextAndUsage(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.InDelta(t, 0.2, req.Temperature, 0.001)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "The notice period is 30 days."}},
			},
			"usage": map[string]any{
				"prompt_tokens":     120,
				"completion_tokens": 12,
				"total_tokens":      132,
			},
		})
	})

	result, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You answer from the provided context."},
		{Role: "user", Content: "What is the notice period?"},
	}, driven.ChatOptions{MaxTokens: 500, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "The notice period is 30 days.", result.Text)
	assert.Equal(t, 120, result.PromptTokens)
	assert.Equal(t, 12, result.CompletionTokens)
	assert.Equal(t, 132, result.TotalTokens)
}

func TestChatRateLimitIsTransient(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "q"},
	}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestChatBadRequestIsPermanent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "q"},
	}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestChatAPIErrorBody(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded", "type": "server_error"},
		})
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "q"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestModelNameDefault(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", svc.ModelName())
}
