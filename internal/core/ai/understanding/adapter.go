package understanding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-extractor/internal/core/ai/provider"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// 呼叫模式，用於日誌與逾時設定
const (
	ModeExtract              = "extract"
	ModeExtractTranscript    = "extract_transcript"
	ModeGenerateInstructions = "generate_instructions"
	ModeGenerateRecipe       = "generate_recipe"
)

const (
	defaultTimeout       = 25 * time.Second
	defaultMaxInputChars = 8000
	minGeneratedSteps    = 5
)

// Options Adapter 設定
type Options struct {
	Timeout           time.Duration
	TranscriptTimeout time.Duration
	Temperature       float64
	MaxTokens         int
	MaxInputChars     int
	Retry             resilience.RetryConfig
}

// Adapter 文字理解服務：三種模式皆為無副作用的單次呼叫，
// 各自獨立逾時與重試
type Adapter struct {
	provider provider.Provider
	opts     Options
}

// NewAdapter 創建 Adapter；provider 為 nil 時所有模式回傳 ErrProviderUnavailable
func NewAdapter(p provider.Provider, opts Options) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TranscriptTimeout <= 0 {
		opts.TranscriptTimeout = opts.Timeout
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = defaultMaxInputChars
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
		opts.Retry.MaxAttempts = 2
	}
	return &Adapter{provider: p, opts: opts}
}

// Available 是否已設定 AI 提供者
func (a *Adapter) Available() bool {
	return a != nil && a.provider != nil
}

// ExtractFromText 從頁面或影片描述中擷取食譜，不補寫內容
func (a *Adapter) ExtractFromText(ctx context.Context, title, body string) (*recipe.Candidate, error) {
	return a.extract(ctx, ModeExtract, a.opts.Timeout, extractPrompt(title, a.clip(body), "text"))
}

// ExtractFromTranscript 從影片逐字稿擷取食譜
func (a *Adapter) ExtractFromTranscript(ctx context.Context, title, transcript string) (*recipe.Candidate, error) {
	return a.extract(ctx, ModeExtractTranscript, a.opts.TranscriptTimeout, extractPrompt(title, a.clip(transcript), "transcript"))
}

// GenerateInstructions 依食材產生步驟；transcript 可為空
func (a *Adapter) GenerateInstructions(ctx context.Context, title string, ingredients []string, transcript string) ([]string, error) {
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredients to generate instructions from", recipe.ErrTierCriteria)
	}
	timeout := a.opts.Timeout
	if transcript != "" {
		timeout = a.opts.TranscriptTimeout
	}
	prompt := instructionsPrompt(title, ingredients, a.clip(transcript))

	return call(ctx, a, ModeGenerateInstructions, timeout, prompt, func(content string) ([]string, error) {
		var out instructionsResponse
		if err := decodeObject(content, &out); err != nil {
			return nil, err
		}
		steps := recipe.CleanList(out.Instructions, recipe.CleanInstruction, minGeneratedSteps)
		if len(steps) == 0 {
			return nil, fmt.Errorf("%w: response has no instructions", recipe.ErrMalformedResponse)
		}
		return steps, nil
	})
}

// GenerateRecipe 只依標題產生完整食譜，結果需標記為生成內容
func (a *Adapter) GenerateRecipe(ctx context.Context, title string) (*recipe.Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title", recipe.ErrTierCriteria)
	}
	return call(ctx, a, ModeGenerateRecipe, a.opts.Timeout, generatePrompt(title), func(content string) (*recipe.Candidate, error) {
		var out recipeResponse
		if err := decodeObject(content, &out); err != nil {
			return nil, err
		}
		c := out.candidate(minGeneratedSteps)
		if !c.HasIngredients() || !c.HasInstructions() {
			return nil, fmt.Errorf("%w: generated recipe is incomplete", recipe.ErrMalformedResponse)
		}
		if c.Title == "" {
			c.Title = recipe.CleanText(title)
		}
		c.Generated = true
		return c, nil
	})
}

func (a *Adapter) extract(ctx context.Context, mode string, timeout time.Duration, prompt string) (*recipe.Candidate, error) {
	return call(ctx, a, mode, timeout, prompt, func(content string) (*recipe.Candidate, error) {
		var out recipeResponse
		if err := decodeObject(content, &out); err != nil {
			return nil, err
		}
		return out.candidate(minGeneratedSteps), nil
	})
}

// call 在逾時內呼叫提供者並解析回應；暫時性錯誤與格式錯誤的回應會重試
func call[T any](ctx context.Context, a *Adapter, mode string, timeout time.Duration, prompt string, parse func(string) (T, error)) (T, error) {
	var zero T
	if !a.Available() {
		return zero, fmt.Errorf("%w: no text-understanding provider", recipe.ErrProviderUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retry := a.opts.Retry
	retry.ShouldRetry = func(err error) bool {
		return resilience.IsTransient(err) || errors.Is(err, recipe.ErrMalformedResponse)
	}
	retry.OnRetry = resilience.RetryLogger(a.provider.Name(), mode)

	start := time.Now()
	out, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		req := provider.UserPrompt(systemPrompt, prompt)
		req.Temperature = a.opts.Temperature
		req.MaxTokens = a.opts.MaxTokens
		if mode == ModeGenerateRecipe {
			// 生成模式允許較多變化
			req.Temperature = a.opts.Temperature + 0.4
		}

		resp, err := a.provider.Generate(ctx, req)
		if err != nil {
			return zero, err
		}
		common.LogDebug("AI 回應內容",
			zap.String("mode", mode),
			zap.Int("ai_response_length", len(resp.Content)),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
		)
		return parse(resp.Content)
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	common.LogAICall(a.provider.Name(), mode, time.Since(start), err)
	return out, err
}

// clip 截斷過長輸入
func (a *Adapter) clip(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= a.opts.MaxInputChars {
		return s
	}
	common.LogDebug("AI 輸入過長，已截斷", zap.Int("max_chars", a.opts.MaxInputChars))
	return common.Truncate(s, a.opts.MaxInputChars)
}
