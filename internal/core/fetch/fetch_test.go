package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html><body>pancakes</body></html>"))
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "test-agent", Retry: fastRetry()})
	resp, err := f.Fetch(context.Background(), srv.URL+"/r")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.HTML, "pancakes")
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	resp, err := New(Options{Retry: fastRetry()}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, resp.HTML, "ok")
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_TransientExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Options{Retry: fastRetry()}).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, recipe.ErrTransientFetch)
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Options{Retry: fastRetry()}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, recipe.ErrTransientFetch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("cf-ray", "abc123")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(Options{Retry: fastRetry()}).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, recipe.ErrBlocked)
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	f := New(Options{Timeout: 20 * time.Millisecond, Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, recipe.FailureTimeout, recipe.FailureKind(err))
}

func TestFetch_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>" + strings.Repeat("a", 5000) + "</html>"))
	}))
	defer srv.Close()

	resp, err := New(Options{MaxBytes: 100, Retry: fastRetry()}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.HTML, 100)
}

func TestDetectBlock(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}

	blocked, kind := DetectBlock(resp, []byte("<html>Checking your browser before accessing</html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)

	blocked, kind = DetectBlock(resp, []byte("<html><div>please solve the captcha</div></html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, kind)

	// 完整食譜頁內嵌 reCAPTCHA 不算阻擋
	page := "<html>" + strings.Repeat("<p>recipe text</p>", 2000) + `<script src="recaptcha/api.js"></script></html>`
	blocked, _ = DetectBlock(resp, []byte(page))
	assert.False(t, blocked)

	blocked, kind = DetectBlock(resp, []byte(`<html><noscript>Enable JavaScript</noscript></html>`))
	assert.True(t, blocked)
	assert.Equal(t, BlockJSShell, kind)

	blocked, _ = DetectBlock(nil, nil)
	assert.False(t, blocked)
}

func TestNeedsFullFetch(t *testing.T) {
	full := "<html><script></script>" + strings.Repeat("x", 25000) + "</html>"
	assert.False(t, NeedsFullFetch(full, 20000))
	assert.True(t, NeedsFullFetch("<html><script></script></html>", 20000))
	assert.True(t, NeedsFullFetch(strings.Repeat("x", 25000), 20000))
}

func TestHostLimiter(t *testing.T) {
	l := NewHostLimiter(1000, 1)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "Example.com"))
	require.NoError(t, l.Wait(ctx, "www.example.com:443"))
	assert.Len(t, l.limiters, 1)

	slow := NewHostLimiter(0.001, 1)
	require.NoError(t, slow.Wait(ctx, "a.com"))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, slow.Wait(cancelled, "a.com"))
}
