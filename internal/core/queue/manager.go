package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Handler 處理單一擷取請求
type Handler func(ctx context.Context, req recipe.Request) (*recipe.Result, error)

// Result 處理結果
type Result struct {
	Result *recipe.Result
	Error  error
}

// job 隊列請求
type job struct {
	ctx     context.Context
	request recipe.Request
	result  chan Result
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	Active         int64 `json:"active"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 有界工作隊列，固定數量的 worker 處理擷取請求
type Manager struct {
	handler   Handler
	queue     chan *job
	workers   int
	maxSize   int
	processed int64
	active    int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(workers, maxSize int, handler Handler) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = workers
	}
	m := &Manager{
		handler: handler,
		queue:   make(chan *job, maxSize),
		workers: workers,
		maxSize: maxSize,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	common.LogInfo("擷取隊列已啟動", zap.Int("workers", workers), zap.Int("max_queue_size", maxSize))
	return m
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for j := range m.queue {
		// 等待期間已被取消的請求不再處理
		if err := j.ctx.Err(); err != nil {
			j.result <- Result{Error: recipe.ErrCancelled}
			continue
		}
		atomic.AddInt64(&m.active, 1)
		res, err := m.handler(j.ctx, j.request)
		atomic.AddInt64(&m.active, -1)
		atomic.AddInt64(&m.processed, 1)
		j.result <- Result{Result: res, Error: err}
		common.LogDebug("隊列請求完成", zap.Int("worker", id), zap.String("source", j.request.Source))
	}
}

// Enqueue 將請求加入隊列，隊列已滿時立即回傳 common.ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, req recipe.Request) (<-chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	j := &job{ctx: ctx, request: req, result: make(chan Result, 1)}
	select {
	case m.queue <- j:
		return j.result, nil
	default:
		common.LogWarn("擷取隊列已滿",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return nil, common.ErrQueueFull
	}
}

// Submit 加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
	ch, err := m.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.Result, r.Error
	case <-ctx.Done():
		return nil, recipe.ErrCancelled
	}
}

// Outcome 批次中單一請求的結果
type Outcome struct {
	Request recipe.Request
	Result  *recipe.Result
	Err     error
}

// Batch 並行送出多個請求；單一請求失敗不影響其他請求，結果順序與輸入相同
func (m *Manager) Batch(ctx context.Context, reqs []recipe.Request) []Outcome {
	out := make([]Outcome, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			res, err := m.Submit(ctx, req)
			out[i] = Outcome{Request: req, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		Active:         atomic.LoadInt64(&m.active),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止接收新請求，等待已排隊的請求處理完畢
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
