package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrMiss 快取中沒有該鍵
var ErrMiss = errors.New("cache miss")

// Store 以正規化網址為鍵、序列化結果為值的儲存後端
type Store interface {
	// Get 取得值，不存在時回傳 ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 寫入值，同一鍵後寫者為準
	Set(ctx context.Context, key string, value []byte) error
	// Stats 回傳統計資料，供健康檢查使用
	Stats() map[string]interface{}
	Close() error
}

// New 依設定建立儲存後端
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.MaxSize, cfg.TTL, cfg.CleanupInterval), nil
	case "redis":
		return NewRedisStore(cfg)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// ResultCache 擷取結果快取；所有錯誤只記錄不回傳
type ResultCache struct {
	store   Store
	backend string
	timeout time.Duration
}

// NewResultCache 包裝儲存後端
func NewResultCache(store Store, backend string) *ResultCache {
	if backend == "" {
		backend = "memory"
	}
	return &ResultCache{store: store, backend: backend, timeout: 2 * time.Second}
}

// Lookup 以來源網址查詢快取
func (c *ResultCache) Lookup(ctx context.Context, source string) (*recipe.Result, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	key, err := NormalizeKey(source)
	if err != nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		common.LogCacheMiss(c.backend, key)
		return nil, false
	case err != nil:
		common.LogWarn("讀取快取失敗，略過快取",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %w", recipe.ErrCacheUnavailable, err)),
		)
		return nil, false
	}

	var result recipe.Result
	if err := json.Unmarshal(data, &result); err != nil {
		common.LogWarn("快取內容無法解析", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	common.LogCacheHit(c.backend, key)
	return &result, true
}

// Save 寫入快取，失敗不影響請求
func (c *ResultCache) Save(ctx context.Context, source string, result *recipe.Result) {
	if c == nil || c.store == nil || result == nil {
		return
	}
	key, err := NormalizeKey(source)
	if err != nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		common.LogWarn("序列化擷取結果失敗", zap.String("key", key), zap.Error(err))
		return
	}

	// 呼叫端取消後仍完成寫入
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.store.Set(ctx, key, data); err != nil {
		common.LogWarn("寫入快取失敗",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %w", recipe.ErrCacheUnavailable, err)),
		)
		return
	}
	common.LogDebug("快取已儲存", zap.String("key", key))
}

// Stats 後端統計
func (c *ResultCache) Stats() map[string]interface{} {
	if c == nil || c.store == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := c.store.Stats()
	stats["enabled"] = true
	stats["backend"] = c.backend
	return stats
}

// Close 關閉後端
func (c *ResultCache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
