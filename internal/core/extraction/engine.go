// Package extraction 依序執行各擷取層級，逐層以補空規則合併結果
package extraction

import (
	"context"
	"fmt"
	"time"

	"recipe-extractor/internal/core/ai/understanding"
	"recipe-extractor/internal/core/cache"
	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/nutrition"
	"recipe-extractor/internal/core/parser/generic"
	"recipe-extractor/internal/core/parser/sites"
	"recipe-extractor/internal/core/parser/structured"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/video"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// PageFetcher 網頁下載
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetch.Response, error)
}

// RecipeAPI 以網址擷取食譜的外部服務
type RecipeAPI interface {
	Enabled() bool
	Extract(ctx context.Context, sourceURL string) (*recipe.Candidate, error)
}

// Options 流程設定
type Options struct {
	RequestTimeout    time.Duration
	MetadataTimeout   time.Duration
	TranscriptTimeout time.Duration
	MinHTMLBytes      int
	AIPageFallback    bool
}

// Deps 各層級使用的元件；除 Structured、Generic 外皆可為 nil
type Deps struct {
	Fetcher     PageFetcher
	Structured  *structured.Parser
	Sites       *sites.Registry
	Generic     *generic.Parser
	Nutrition   *nutrition.Extractor
	Spoonacular RecipeAPI
	Videos      video.Providers
	Adapter     *understanding.Adapter
	Cache       *cache.ResultCache
	Metrics     *Metrics
}

// Engine 擷取流程協調者，可同時處理多個請求；請求之間只共用快取
type Engine struct {
	deps Deps
	opts Options
}

// Outcome 擷取結果與快取資訊
type Outcome struct {
	Result   *recipe.Result
	CacheHit bool
	Duration time.Duration
}

// New 創建擷取流程
func New(deps Deps, opts Options) *Engine {
	if deps.Structured == nil {
		deps.Structured = structured.NewParser(0)
	}
	if deps.Generic == nil {
		deps.Generic = generic.NewParser(0)
	}
	if deps.Nutrition == nil {
		deps.Nutrition = nutrition.NewExtractor(0)
	}
	if deps.Sites == nil {
		deps.Sites = sites.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 8 * time.Second
	}
	if opts.TranscriptTimeout <= 0 {
		opts.TranscriptTimeout = 10 * time.Second
	}
	return &Engine{deps: deps, opts: opts}
}

// CacheStats 快取統計，供健康檢查使用
func (e *Engine) CacheStats() map[string]interface{} {
	return e.deps.Cache.Stats()
}

// Extract 執行擷取。只會回傳 recipe.ErrInvalidInput 或 recipe.ErrCancelled 兩種錯誤，
// 找不到食譜時回傳 Found 為 false 的結果
func (e *Engine) Extract(ctx context.Context, req recipe.Request) (*recipe.Result, error) {
	out, err := e.ExtractDetailed(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// ExtractDetailed 與 Extract 相同，另回傳是否命中快取
func (e *Engine) ExtractDetailed(ctx context.Context, req recipe.Request) (*Outcome, error) {
	start := time.Now()
	u, err := recipe.ParseSource(req.Source)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, recipe.ErrCancelled
	}

	if cached, ok := e.deps.Cache.Lookup(ctx, u.String()); ok {
		e.deps.Metrics.observeCache(true)
		return &Outcome{Result: cached, CacheHit: true, Duration: time.Since(start)}, nil
	}
	if e.deps.Cache != nil {
		e.deps.Metrics.observeCache(false)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	r := newRun(u.String())
	platform := recipe.PlatformWeb
	if ref, ok := video.Classify(u, req.PlatformHint); ok {
		platform = ref.Platform
		e.runVideo(runCtx, r, ref)
	} else {
		e.runWeb(runCtx, r, req)
	}

	// 呼叫端取消時不回傳部分結果
	if ctx.Err() != nil {
		common.LogInfo("擷取已取消", zap.String("source", r.source), zap.Strings("tiers", tierNames(r.chain)))
		return nil, recipe.ErrCancelled
	}
	if runCtx.Err() != nil {
		r.timedOut = true
	}

	result := r.result(platform)
	e.deps.Metrics.observeExtraction(platform, result.Confidence, time.Since(start))
	common.LogInfo("擷取完成",
		zap.String("source", r.source),
		zap.String("platform", string(platform)),
		zap.String("confidence", string(result.Confidence)),
		zap.Strings("tiers", tierNames(result.TierChain)),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("duration", time.Since(start)),
	)

	if result.Found && !result.TimedOut {
		e.deps.Cache.Save(ctx, u.String(), result)
	}
	return &Outcome{Result: result, Duration: time.Since(start)}, nil
}

// run 單一請求的累積狀態
type run struct {
	source     string
	acc        *recipe.Candidate
	chain      []recipe.Tier
	errs       []recipe.TierFailure
	confidence func(*run) recipe.Confidence
	timedOut   bool

	structuredHit  bool
	descriptionHit bool
}

func newRun(source string) *run {
	return &run{source: source, acc: recipe.NewCandidate(source)}
}

// step 執行單一層級：記錄層級鏈、以補空規則合併候選結果、記錄失敗。
// fn 回傳的候選結果即使未達成功條件仍會合併。
func (e *Engine) step(ctx context.Context, r *run, tier recipe.Tier, fn func(ctx context.Context) (*recipe.Candidate, bool, error)) bool {
	start := time.Now()
	c, ok, err := fn(ctx)
	r.chain = append(r.chain, tier)
	filled := r.acc.MergeGap(c, tier)

	outcome := "success"
	switch {
	case err != nil:
		outcome = recipe.FailureKind(err)
		r.errs = append(r.errs, recipe.NewTierFailure(tier, err))
		ok = false
	case !ok:
		outcome = recipe.FailureCriteria
		r.errs = append(r.errs, recipe.NewTierFailure(tier, recipe.ErrTierCriteria))
	}

	duration := time.Since(start)
	common.LogTier(string(tier), outcome, r.acc.SiteName, len(r.acc.Ingredients), len(r.acc.Instructions), duration)
	if len(filled) > 0 {
		common.LogDebug("層級補齊欄位", zap.String("tier", string(tier)), zap.Any("fields", filled))
	}
	e.deps.Metrics.observeTier(tier, outcome, duration)
	return ok
}

// fail 記錄未執行成功的前置步驟（下載、中繼資料），不列入層級鏈
func (r *run) fail(tier recipe.Tier, err error) {
	r.errs = append(r.errs, recipe.NewTierFailure(tier, err))
}

// stopped 整體期限已到
func stopped(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (r *run) result(platform recipe.Platform) *recipe.Result {
	if len(r.chain) == 0 {
		// 沒有任何層級可執行時仍需非空的層級鏈
		first := recipe.TierStructuredData
		if platform.IsVideo() {
			first = recipe.TierVideoMetadata
		}
		r.chain = append(r.chain, first)
	}

	confidence := recipe.ConfidenceLow
	if r.confidence != nil {
		confidence = r.confidence(r)
	}
	if r.timedOut {
		confidence = confidence.Downgrade()
	}

	return &recipe.Result{
		Recipe:       *r.acc,
		Confidence:   confidence,
		TierChain:    r.chain,
		Errors:       r.errs,
		QualityScore: recipe.QualityScore(r.acc),
		Found:        !r.acc.IsEmpty(),
		TimedOut:     r.timedOut,
	}
}

func tierNames(tiers []recipe.Tier) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = string(t)
	}
	return out
}

// withTimeout 以較短者為準的子 context
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func criteria(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{recipe.ErrTierCriteria}, args...)...)
}
