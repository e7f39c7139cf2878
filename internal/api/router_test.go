package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/queue"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct{}

func (stubExtractor) ExtractDetailed(context.Context, recipe.Request) (*extraction.Outcome, error) {
	return &extraction.Outcome{Result: &recipe.Result{Found: true, Confidence: recipe.ConfidenceMedium}}, nil
}

type stubBatcher struct{}

func (stubBatcher) Batch(_ context.Context, reqs []recipe.Request) []queue.Outcome {
	return make([]queue.Outcome, len(reqs))
}

func testRouter(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.App.Debug = true
	if mutate != nil {
		mutate(cfg)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))

	r, err := SetupRouter(cfg, Services{Extractor: stubExtractor{}, Batcher: stubBatcher{}, Gatherer: reg})
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_RequiresServices(t *testing.T) {
	_, err := SetupRouter(config.Default(), Services{})
	assert.Error(t, err)
}

func TestRouter_Routes(t *testing.T) {
	r := testRouter(t, nil)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_total")

	w = do(r, http.MethodPost, "/api/v1/recipe/extract", `{"url":"https://example.com/r"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = do(r, http.MethodPost, "/api/v1/recipe/extract/batch", `{"items":[{"url":"https://example.com/r"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestRouter_BodySizeLimit(t *testing.T) {
	r := testRouter(t, func(c *config.Config) { c.Server.MaxBodyBytes = 32 })
	w := do(r, http.MethodPost, "/api/v1/recipe/extract", `{"url":"https://example.com/r","html":"<html><body>long</body></html>"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	r := testRouter(t, func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.Requests = 1
		c.RateLimit.Window = time.Minute
	})

	w := do(r, http.MethodPost, "/api/v1/recipe/extract", `{"url":"https://example.com/r"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/v1/recipe/extract", `{"url":"https://example.com/r"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 健康檢查不受限流影響
	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
