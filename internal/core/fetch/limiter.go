package fetch

import (
	"context"
	"sync"

	"recipe-extractor/internal/core/recipe"

	"golang.org/x/time/rate"
)

// HostLimiter 每個主機各自的請求速率限制
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewHostLimiter rps <= 0 時不限制
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      limit,
		burst:    burst,
	}
}

// Wait 等待該主機的下一個配額
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil || h.rps == rate.Inf {
		return nil
	}
	return h.get(recipe.NormalizeHost(host)).Wait(ctx)
}

func (h *HostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[host] = l
	}
	return l
}
