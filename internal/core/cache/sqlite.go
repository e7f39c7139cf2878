package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	cache_key  TEXT PRIMARY KEY,
	result     BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_extraction_cache_expires_at ON extraction_cache(expires_at);
`

// SQLiteStore 持久化快取，重啟後仍保留結果
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewSQLiteStore 開啟資料庫、設定 WAL 並建立資料表
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	s := &SQLiteStore{db: db, ttl: ttl}
	// 開啟時清掉上次執行留下的過期項目
	if n, err := s.DeleteExpired(context.Background()); err == nil && n > 0 {
		common.LogInfo("sqlite 快取已清除過期項目", zap.Int("deleted", n))
	}
	return s, nil
}

// Get 實作 Store
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM extraction_cache WHERE cache_key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, time.Now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	s.hits.Add(1)
	return data, nil
}

// Set 實作 Store；同鍵以單一 upsert 覆寫
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_cache (cache_key, result, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, value, now.Unix(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// DeleteExpired 刪除過期項目
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM extraction_cache WHERE expires_at > 0 AND expires_at <= ?`, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Stats 實作 Store
func (s *SQLiteStore) Stats() map[string]interface{} {
	var size int
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM extraction_cache`).Scan(&size)
	return map[string]interface{}{
		"size":   size,
		"hits":   s.hits.Load(),
		"misses": s.misses.Load(),
	}
}

// Close 實作 Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
