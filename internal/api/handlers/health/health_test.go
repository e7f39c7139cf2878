package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-extractor/internal/core/queue"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache map[string]interface{}

func (f fakeCache) CacheStats() map[string]interface{} { return f }

type fakeQueue struct{ status queue.Status }

func (f *fakeQueue) GetQueueStatus() *queue.Status { return &f.status }

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler("1.2.0", fakeCache{"backend": "memory", "items": 3}, &fakeQueue{status: queue.Status{Workers: 4, MaxQueueSize: 100}})

	w := serve(h.HealthCheck)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.0", resp.Version)
	assert.Equal(t, "memory", resp.Cache["backend"])
	require.NotNil(t, resp.Queue)
	assert.Equal(t, 4, resp.Queue.Workers)
	assert.Contains(t, resp.Runtime, "goroutines")
}

func TestHealthCheck_WithoutDependencies(t *testing.T) {
	w := serve(NewHandler("dev", nil, nil).HealthCheck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"queue"`)
	assert.NotContains(t, w.Body.String(), `"cache"`)
}

func TestReadinessCheck(t *testing.T) {
	q := &fakeQueue{status: queue.Status{QueueLength: 1, MaxQueueSize: 2}}
	h := NewHandler("dev", nil, q)

	w := serve(h.ReadinessCheck)
	assert.Equal(t, http.StatusOK, w.Code)

	q.status.QueueLength = 2
	w = serve(h.ReadinessCheck)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "busy")
}

func TestLivenessCheck(t *testing.T) {
	w := serve(NewHandler("dev", nil, nil).LivenessCheck)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
