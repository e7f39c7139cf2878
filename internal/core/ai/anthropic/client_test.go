package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-extractor/internal/core/ai/provider"
	"recipe-extractor/internal/core/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.NotEmpty(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_1",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  20,
				"output_tokens": 7,
			},
		})
	}))
}

func TestClient_Generate(t *testing.T) {
	srv := messageServer(t, `{"ingredients":["1 egg"]}`)
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})
	resp, err := c.Generate(context.Background(), provider.UserPrompt("", "extract"))
	require.NoError(t, err)
	assert.Equal(t, `{"ingredients":["1 egg"]}`, resp.Content)
	assert.Equal(t, 27, resp.Usage.TotalTokens)
	assert.Equal(t, "claude-test", c.GetModel())
}

func TestClient_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), provider.UserPrompt("", "extract"))
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}
