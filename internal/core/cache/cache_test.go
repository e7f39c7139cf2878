package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://WWW.Example.com/Recipe/Pancakes/?utm_source=x&b=2&a=1#comments", "https://www.example.com/Recipe/Pancakes?a=1&b=2"},
		{"https://example.com/soup/?fbclid=abc", "https://example.com/soup"},
		{"example.com/soup", "https://example.com/soup"},
		{"https://example.com/", "https://example.com"},
		{"https://youtu.be/dQw4w9WgXcQ?si=share", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeKey("not a url")
	assert.ErrorIs(t, err, recipe.ErrInvalidInput)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(2, 0, 0)
	defer m.Close()

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	// b 從未被讀取，容量滿時先被淘汰
	require.NoError(t, m.Set(ctx, "c", []byte("3")))
	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)

	// 同鍵覆寫
	require.NoError(t, m.Set(ctx, "a", []byte("9")))
	got, _ = m.Get(ctx, "a")
	assert.Equal(t, []byte("9"), got)
	assert.Equal(t, 2, m.Stats()["size"])
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(10, 10*time.Millisecond, 0)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	time.Sleep(20 * time.Millisecond)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(config.CacheConfig{RedisAddr: mr.Addr(), KeyPrefix: "recipe:", TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"found":true}`)))
	assert.True(t, mr.Exists("recipe:k"))
	assert.Equal(t, time.Minute, mr.TTL("recipe:k"))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(config.CacheConfig{RedisAddr: addr})
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	require.NoError(t, s.Set(ctx, "k", []byte("first")))
	require.NoError(t, s.Set(ctx, "k", []byte("second")))
	require.NoError(t, s.Close())

	// 重新開啟後資料仍在
	s, err = NewSQLiteStore(path, 0)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, 1, s.Stats()["size"])
}

func TestSQLiteStore_Expiry(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), -time.Hour)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	// 負值 ttl 等同不過期
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	_, err = s.Get(ctx, "k")
	assert.NoError(t, err)

	s.ttl = time.Second
	require.NoError(t, s.Set(ctx, "old", []byte("v")))
	_, err = s.db.Exec(`UPDATE extraction_cache SET expires_at = 1 WHERE cache_key = 'old'`)
	require.NoError(t, err)
	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrMiss)
	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func sampleResult() *recipe.Result {
	c := recipe.NewCandidate("https://example.com/pancakes")
	c.Title = "Pancakes"
	c.Ingredients = []string{"1 cup flour", "1 egg"}
	c.Servings = recipe.IntPtr(4)
	c.Provenance[recipe.FieldTitle] = recipe.TierStructuredData
	return &recipe.Result{
		Recipe:     *c,
		Confidence: recipe.ConfidenceMedium,
		TierChain:  []recipe.Tier{recipe.TierStructuredData},
		Found:      true,
	}
}

func TestResultCache_RoundTripIsByteIdentical(t *testing.T) {
	rc := NewResultCache(NewMemoryStore(10, 0, 0), "memory")
	defer rc.Close()
	ctx := context.Background()

	want := sampleResult()
	rc.Save(ctx, "https://example.com/pancakes/?utm_medium=share", want)

	got, ok := rc.Lookup(ctx, "https://EXAMPLE.com/pancakes")
	require.True(t, ok)
	a, _ := json.Marshal(want)
	b, _ := json.Marshal(got)
	assert.Equal(t, string(a), string(b))

	_, ok = rc.Lookup(ctx, "https://example.com/waffles")
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingStore) Set(context.Context, string, []byte) error   { return errors.New("down") }
func (failingStore) Stats() map[string]interface{}               { return map[string]interface{}{} }
func (failingStore) Close() error                                { return nil }

func TestResultCache_FailuresAreBypassed(t *testing.T) {
	rc := NewResultCache(failingStore{}, "redis")
	ctx := context.Background()
	rc.Save(ctx, "https://example.com/a", sampleResult())
	_, ok := rc.Lookup(ctx, "https://example.com/a")
	assert.False(t, ok)

	var nilCache *ResultCache
	_, ok = nilCache.Lookup(ctx, "https://example.com/a")
	assert.False(t, ok)
	assert.Equal(t, false, nilCache.Stats()["enabled"])
}

func TestResultCache_SaveAfterCancel(t *testing.T) {
	rc := NewResultCache(NewMemoryStore(10, 0, 0), "memory")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Save(ctx, "https://example.com/pancakes", sampleResult())

	_, ok := rc.Lookup(context.Background(), "https://example.com/pancakes")
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	s, err := New(config.CacheConfig{Backend: "memory", MaxSize: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	_ = s.Close()

	_, err = New(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}
