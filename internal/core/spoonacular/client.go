package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.spoonacular.com"
	defaultTimeout = 5 * time.Second
)

// Client Spoonacular recipe-extract API 客戶端
type Client struct {
	client *resty.Client
	apiKey string
	retry  resilience.RetryConfig
}

// NewClient 創建客戶端；apiKey 為空時 Enabled 回傳 false
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 2
	retry.OnRetry = resilience.RetryLogger("spoonacular", "extract")

	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
		retry:  retry,
	}
}

// Enabled 是否已設定 API 金鑰
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type extractResponse struct {
	Title               string `json:"title"`
	Image               string `json:"image"`
	Servings            int    `json:"servings"`
	ReadyInMinutes      int    `json:"readyInMinutes"`
	PreparationMinutes  *int   `json:"preparationMinutes"`
	CookingMinutes      *int   `json:"cookingMinutes"`
	ExtendedIngredients []struct {
		Original string `json:"original"`
	} `json:"extendedIngredients"`
	AnalyzedInstructions []struct {
		Steps []struct {
			Number int    `json:"number"`
			Step   string `json:"step"`
		} `json:"steps"`
	} `json:"analyzedInstructions"`
}

// Extract 呼叫 /recipes/extract 並轉為候選食譜
func (c *Client) Extract(ctx context.Context, sourceURL string) (*recipe.Candidate, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: spoonacular api key not set", recipe.ErrProviderUnavailable)
	}

	out, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*extractResponse, error) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"url":              sourceURL,
				"apiKey":           c.apiKey,
				"analyze":          "true",
				"forceExtraction":  "false",
				"includeNutrition": "false",
				"includeTaste":     "false",
			}).
			Get("/recipes/extract")
		if err != nil {
			return nil, fmt.Errorf("spoonacular extract: %w", err)
		}
		if !common.IsSuccessStatus(resp.StatusCode()) {
			return nil, resilience.StatusError(fmt.Errorf("spoonacular extract: status %d", resp.StatusCode()), resp.StatusCode())
		}
		var body extractResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, fmt.Errorf("%w: spoonacular: %v", recipe.ErrMalformedResponse, err)
		}
		return &body, nil
	})
	if err != nil {
		return nil, err
	}
	return out.candidate(sourceURL), nil
}

func (r *extractResponse) candidate(sourceURL string) *recipe.Candidate {
	c := recipe.NewCandidate(sourceURL)
	c.Title = recipe.CleanText(r.Title)
	c.ImageURL = r.Image

	ingredients := make([]string, 0, len(r.ExtendedIngredients))
	for _, ing := range r.ExtendedIngredients {
		ingredients = append(ingredients, ing.Original)
	}
	c.Ingredients = recipe.CleanList(ingredients, recipe.CleanIngredient, 2)

	// 只取第一組步驟
	if len(r.AnalyzedInstructions) > 0 {
		steps := make([]string, 0, len(r.AnalyzedInstructions[0].Steps))
		for _, s := range r.AnalyzedInstructions[0].Steps {
			steps = append(steps, s.Step)
		}
		c.Instructions = recipe.CleanList(steps, recipe.CleanInstruction, 5)
	}

	if r.Servings > 0 {
		c.Servings = recipe.IntPtr(r.Servings)
	}
	if r.PreparationMinutes != nil && *r.PreparationMinutes > 0 {
		c.PrepMinutes = recipe.IntPtr(*r.PreparationMinutes)
	}
	if r.CookingMinutes != nil && *r.CookingMinutes > 0 {
		c.CookMinutes = recipe.IntPtr(*r.CookingMinutes)
	}
	if r.ReadyInMinutes > 0 {
		c.TotalMinutes = recipe.IntPtr(r.ReadyInMinutes)
	}
	return c
}
