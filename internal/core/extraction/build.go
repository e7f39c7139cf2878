package extraction

import (
	"fmt"
	"strings"

	"recipe-extractor/internal/core/ai/anthropic"
	"recipe-extractor/internal/core/ai/openrouter"
	"recipe-extractor/internal/core/ai/provider"
	"recipe-extractor/internal/core/ai/understanding"
	"recipe-extractor/internal/core/cache"
	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/nutrition"
	"recipe-extractor/internal/core/parser/generic"
	"recipe-extractor/internal/core/parser/sites"
	"recipe-extractor/internal/core/parser/structured"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/core/spoonacular"
	"recipe-extractor/internal/core/video"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// NewFromConfig 依設定組裝擷取流程；回傳的 cleanup 會關閉快取與 AI 提供者
func NewFromConfig(cfg *config.Config, reg prometheus.Registerer) (*Engine, func(), error) {
	ex := cfg.Extraction

	ap, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		store, err := cache.New(cfg.Cache)
		if err != nil {
			// 快取無法使用時照常服務
			common.LogWarn("快取初始化失敗，停用快取",
				zap.String("backend", cfg.Cache.Backend),
				zap.Error(fmt.Errorf("%w: %w", recipe.ErrCacheUnavailable, err)),
			)
		} else {
			resultCache = cache.NewResultCache(store, cfg.Cache.Backend)
		}
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.AI.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.AI.MaxAttempts
	}
	if cfg.AI.RetryBackoff > 0 {
		retry.InitialBackoff = cfg.AI.RetryBackoff
	}

	deps := Deps{
		Fetcher: fetch.New(fetch.Options{
			UserAgent:             ex.UserAgent,
			Timeout:               ex.FetchTimeout,
			MaxBytes:              ex.MaxHTMLBytes,
			HostRequestsPerSecond: ex.HostRequestsPerSecond,
		}),
		Structured:  structured.NewParser(ex.MinStepLength),
		Sites:       sites.Default(),
		Generic:     generic.NewParser(ex.MaxIngredients),
		Nutrition:   nutrition.NewExtractor(ex.CaloriesPerServingCutoff),
		Spoonacular: spoonacular.NewClient(cfg.Spoonacular.APIKey, cfg.Spoonacular.BaseURL, ex.FetchTimeout),
		Videos: video.Providers{
			recipe.PlatformYouTube: video.NewYouTube(video.YouTubeOptions{
				APIKey:       cfg.YouTube.APIKey,
				BaseURL:      cfg.YouTube.BaseURL,
				PageBaseURL:  cfg.YouTube.PageBaseURL,
				ClientID:     cfg.YouTube.ClientID,
				ClientSecret: cfg.YouTube.ClientSecret,
				RefreshToken: cfg.YouTube.RefreshToken,
				TokenURL:     cfg.YouTube.TokenURL,
				UserAgent:    ex.UserAgent,
				Timeout:      ex.MetadataTimeout,
			}),
			recipe.PlatformTikTok: video.NewTikTok(cfg.TikTok.OEmbedURL, ex.MetadataTimeout),
		},
		Adapter: understanding.NewAdapter(ap, understanding.Options{
			Timeout:           cfg.AI.Timeout,
			TranscriptTimeout: ex.TranscriptAITimeout,
			Temperature:       cfg.AI.Temperature,
			MaxInputChars:     cfg.AI.MaxInputChar,
			Retry:             retry,
		}),
		Cache:   resultCache,
		Metrics: NewMetrics(reg),
	}

	engine := New(deps, Options{
		RequestTimeout:    ex.RequestTimeout,
		MetadataTimeout:   ex.MetadataTimeout,
		TranscriptTimeout: ex.TranscriptTimeout,
		MinHTMLBytes:      ex.MinHTMLBytes,
		AIPageFallback:    ex.AIPageFallback,
	})

	cleanup := func() {
		if err := resultCache.Close(); err != nil {
			common.LogWarn("關閉快取失敗", zap.Error(err))
		}
		if ap != nil {
			if err := ap.Close(); err != nil {
				common.LogWarn("關閉 AI 提供者失敗", zap.Error(err))
			}
		}
	}

	common.LogInfo("擷取流程已初始化",
		zap.String("ai_provider", providerName(ap)),
		zap.Bool("cache_enabled", resultCache != nil),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("spoonacular_enabled", deps.Spoonacular.Enabled()),
		zap.Bool("ai_page_fallback", ex.AIPageFallback),
	)
	return engine, cleanup, nil
}

// NewProvider 依 ai.provider 建立文字理解提供者；none 或缺少金鑰時回傳 nil
func NewProvider(cfg *config.Config) (provider.Provider, error) {
	switch strings.ToLower(cfg.AI.Provider) {
	case "", "openrouter":
		if cfg.OpenRouter.APIKey == "" {
			return nil, nil
		}
		return openrouter.NewClient(provider.Config{
			APIKey:    cfg.OpenRouter.APIKey,
			Model:     cfg.OpenRouter.Model,
			BaseURL:   cfg.OpenRouter.BaseURL,
			MaxTokens: cfg.OpenRouter.MaxTokens,
			Timeout:   cfg.AI.Timeout,
		}), nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, nil
		}
		return anthropic.NewClient(provider.Config{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			BaseURL:   cfg.Anthropic.BaseURL,
			MaxTokens: cfg.Anthropic.MaxTokens,
			Timeout:   cfg.AI.Timeout,
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}

func providerName(p provider.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name() + "/" + p.GetModel()
}
