package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/queue"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	out  *extraction.Outcome
	err  error
	last recipe.Request
}

func (f *fakeExtractor) ExtractDetailed(_ context.Context, req recipe.Request) (*extraction.Outcome, error) {
	f.last = req
	return f.out, f.err
}

type fakeBatcher struct {
	fn func(recipe.Request) (*recipe.Result, error)
}

func (f *fakeBatcher) Batch(_ context.Context, reqs []recipe.Request) []queue.Outcome {
	out := make([]queue.Outcome, len(reqs))
	for i, r := range reqs {
		res, err := f.fn(r)
		out[i] = queue.Outcome{Request: r, Result: res, Err: err}
	}
	return out
}

func sampleResult() *recipe.Result {
	return &recipe.Result{
		Recipe: recipe.Candidate{
			Title:        "Lemon Bars",
			Ingredients:  []string{"1 cup butter"},
			Instructions: []string{"Bake."},
			SourceURL:    "https://example.com/lemon-bars",
		},
		Confidence: recipe.ConfidenceHigh,
		TierChain:  []recipe.Tier{recipe.TierStructuredData},
		Found:      true,
	}
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.New())
	r.POST("/extract", h.HandleExtract)
	r.POST("/extract/batch", h.HandleBatch)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandleExtract(t *testing.T) {
	ex := &fakeExtractor{out: &extraction.Outcome{Result: sampleResult(), CacheHit: true, Duration: 12 * time.Millisecond}}
	r := newRouter(NewHandler(ex, &fakeBatcher{}, 0, false))

	w := post(r, "/extract", `{"url":"https://example.com/lemon-bars","html":"<html></html>","platform_hint":"web"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, "12ms", w.Header().Get("X-Extraction-Time"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var got recipe.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Lemon Bars", got.Recipe.Title)
	assert.Equal(t, recipe.ConfidenceHigh, got.Confidence)

	assert.Equal(t, "https://example.com/lemon-bars", ex.last.Source)
	assert.Equal(t, "<html></html>", ex.last.RawHTML)
	assert.Equal(t, recipe.PlatformWeb, ex.last.PlatformHint)
}

func TestHandleExtract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"missing url", `{"html":"<p></p>"}`, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"bad json", `{"url":`, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"invalid source", `{"url":"ftp://x"}`, fmt.Errorf("%w: unsupported scheme", recipe.ErrInvalidInput), http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"cancelled", `{"url":"https://example.com/a"}`, recipe.ErrCancelled, common.StatusClientClosedRequest, common.ErrCodeRequestCancelled},
		{"queue full", `{"url":"https://example.com/a"}`, common.ErrQueueFull, http.StatusServiceUnavailable, "QUEUE_FULL"},
		{"queue closed", `{"url":"https://example.com/a"}`, queue.ErrClosed, http.StatusServiceUnavailable, common.ErrCodeServiceUnavailable},
		{"unexpected", `{"url":"https://example.com/a"}`, fmt.Errorf("boom"), http.StatusInternalServerError, common.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewHandler(&fakeExtractor{err: tt.err}, &fakeBatcher{}, 0, false))
			w := post(r, "/extract", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Empty(t, resp.Details)
		})
	}
}

func TestHandleBatch(t *testing.T) {
	b := &fakeBatcher{fn: func(r recipe.Request) (*recipe.Result, error) {
		if r.Source == "bad" {
			return nil, fmt.Errorf("%w: empty host", recipe.ErrInvalidInput)
		}
		return sampleResult(), nil
	}}
	r := newRouter(NewHandler(&fakeExtractor{}, b, 5, true))

	w := post(r, "/extract/batch", `{"items":[{"url":"https://example.com/a"},{"url":"bad"},{"url":"https://example.com/b"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 3)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	assert.Equal(t, "https://example.com/a", resp.Items[0].URL)
	assert.NotNil(t, resp.Items[0].Result)
	assert.Equal(t, "bad", resp.Items[1].URL)
	require.NotNil(t, resp.Items[1].Error)
	assert.Equal(t, common.ErrCodeInvalidInput, resp.Items[1].Error.Code)
	assert.Contains(t, resp.Items[1].Error.Details, "empty host")
	assert.NotEqual(t, resp.Items[0].ID, resp.Items[2].ID)
}

func TestHandleBatch_Limits(t *testing.T) {
	r := newRouter(NewHandler(&fakeExtractor{}, &fakeBatcher{}, 2, false))

	w := post(r, "/extract/batch", `{"items":[{"url":"a.com"},{"url":"b.com"},{"url":"c.com"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/extract/batch", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/extract/batch", `{"items":[{"html":"<p></p>"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
