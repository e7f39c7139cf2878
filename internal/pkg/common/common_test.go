package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"a":{"b":2}} hope this helps`, `{"a":{"b":2}}`},
		{"no object", "nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestParseJSON_RejectsTrailingData(t *testing.T) {
	var v map[string]any
	require.NoError(t, ParseJSON(`{"a":1}`, &v))
	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
}

func TestQuoteJSONKeys(t *testing.T) {
	var v map[string]any
	require.NoError(t, ParseJSON(QuoteJSONKeys(`{title: "x", servings: 2}`), &v))
	assert.Equal(t, "x", v["title"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestCustomError(t *testing.T) {
	base := errors.New("boom")
	err := ErrInvalidInput.WithErr(base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "boom", err.Response(true).Details)
	assert.Empty(t, err.Response(false).Details)

	assert.Same(t, err, AsCustomError(err))
	assert.Equal(t, ErrCodeInternalError, AsCustomError(base).Code)
}

func TestFilterFieldsDropsPayloads(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("html", "<html>"),
		zap.String("transcript", "hello"),
		zap.String("url", "https://example.com"),
	})
	require.Len(t, fields, 1)
	assert.Equal(t, "url", fields[0].Key)
}

func TestLoggingWithoutInit(t *testing.T) {
	assert.NotPanics(t, func() {
		LogInfo("test")
		LogWarn("test", zap.String("html", "<p>"))
	})
}
