package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *llm.GroqClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := llm.NewGroqClient(config.GroqConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "llama3-8b-8192",
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	require.NoError(t, err)
	return client
}

func TestNewGroqClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	client, err := llm.NewGroqClient(config.GroqConfig{})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestGroqClientComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"subject\":\"Hi\",\"body\":\"Bye\"}"}}]}`))
	})

	text, err := client.Complete(context.Background(), llm.CompletionRequest{
		System: "You are a professional email writer.",
		Prompt: "Write something",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"subject":"Hi","body":"Bye"}`, text)

	// Model parameters are deployment constants carried on every request.
	assert.Equal(t, "llama3-8b-8192", got["model"])
	assert.Equal(t, 0.7, got["temperature"])
	assert.Equal(t, float64(1024), got["max_tokens"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestGroqClientCompleteAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)

	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_api_key", apiErr.Code)
	assert.Equal(t, "Invalid API Key", apiErr.Message)
}

func TestGroqClientCompleteEmptyChoices(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "no choices")
}
