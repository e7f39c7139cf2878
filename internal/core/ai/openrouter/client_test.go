package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-extractor/internal/core/ai/provider"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test/model", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
		}
		if assert.NotNil(t, body.ResponseFormat) {
			assert.Equal(t, "json_object", body.ResponseFormat.Type)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","model":"test/model","choices":[{"message":{"role":"assistant","content":" {\"title\":\"x\"} "}}],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "sk-test", Model: "test/model", BaseURL: srv.URL})
	resp, err := c.Generate(context.Background(), provider.UserPrompt("be terse", "hi"))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, resp.Content)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	assert.Equal(t, "openrouter", c.Name())
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
		malformed bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, true, false},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, false, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, false, true},
		{"not json", http.StatusOK, `<html>`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(provider.Config{BaseURL: srv.URL, Model: "m"}).
				Generate(context.Background(), provider.UserPrompt("", "hi"))
			require.Error(t, err)
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
			assert.Equal(t, tt.malformed, recipe.FailureKind(err) == recipe.FailureMalformed)
		})
	}
}
