// Package fetch 下載食譜網頁，處理逾時、重試、主機速率與反爬蟲偵測
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	defaultMaxBytes  = 5 << 20
	defaultTimeout   = 8 * time.Second
)

// Options 下載器設定
type Options struct {
	UserAgent             string
	Timeout               time.Duration
	MaxBytes              int64
	HostRequestsPerSecond float64
	Retry                 resilience.RetryConfig
}

// Response 下載結果
type Response struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
}

// Fetcher 網頁下載器，可同時服務多個請求
type Fetcher struct {
	client   *resty.Client
	limiter  *HostLimiter
	timeout  time.Duration
	maxBytes int64
	retry    resilience.RetryConfig
}

// New 創建下載器
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = resilience.DefaultRetryConfig()
		opts.Retry.MaxAttempts = 2
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetch", "page")
	}

	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Fetcher{
		client:   client,
		limiter:  NewHostLimiter(opts.HostRequestsPerSecond, 2),
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		retry:    opts.Retry,
	}
}

// Fetch 下載網頁；阻擋頁回傳 recipe.ErrBlocked，重試用盡的暫時性錯誤包含 recipe.ErrTransientFetch
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Response, error) {
	u, err := recipe.ParseSource(pageURL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*Response, error) {
		return f.fetchOnce(ctx, u.String())
	})
	if err != nil {
		if resilience.IsTransient(err) {
			err = fmt.Errorf("%w: %w", recipe.ErrTransientFetch, err)
		}
		common.LogWarn("網頁下載失敗",
			zap.String("url", u.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	common.LogDebug("網頁下載完成",
		zap.String("url", resp.FinalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.HTML)),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, resilience.NewTransientError(fmt.Errorf("fetch %s: %w", pageURL, err), 0)
		}
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, f.maxBytes))
	if err != nil {
		return nil, resilience.NewTransientError(fmt.Errorf("read body: %w", err), 0)
	}

	if blocked, kind := DetectBlock(resp.RawResponse, body); blocked {
		return nil, fmt.Errorf("%w (%s)", recipe.ErrBlocked, kind)
	}
	if status := resp.StatusCode(); status >= http.StatusBadRequest {
		return nil, resilience.StatusError(fmt.Errorf("fetch %s: status %d", pageURL, status), status)
	}

	final := pageURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL.String()
	}
	return &Response{
		URL:        pageURL,
		FinalURL:   final,
		StatusCode: resp.StatusCode(),
		HTML:       string(body),
	}, nil
}

// NeedsFullFetch 用戶端提供的 HTML 過小或缺少主要標記時需重新下載
func NeedsFullFetch(html string, minBytes int) bool {
	if minBytes > 0 && len(html) < minBytes {
		return true
	}
	lower := strings.ToLower(html)
	return !strings.Contains(lower, "<html") || !strings.Contains(lower, "<script")
}
