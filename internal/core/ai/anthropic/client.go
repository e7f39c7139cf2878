package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-extractor/internal/core/ai/provider"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 2000

// jsonOnlyInstruction 追加在 system prompt 後，Messages API 沒有 JSON 模式
const jsonOnlyInstruction = "Respond with a single JSON object and nothing else."

// Client Anthropic Messages API 提供者
type Client struct {
	client sdk.Client
	cfg    provider.Config
}

// NewClient 創建 Anthropic 提供者；重試交由呼叫端處理
func NewClient(cfg provider.Config) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{client: sdk.NewClient(opts...), cfg: cfg}
}

// Name 實作 provider.Provider
func (c *Client) Name() string { return "anthropic" }

// GetModel 實作 provider.Provider
func (c *Client) GetModel() string { return c.cfg.Model }

// Generate 實作 provider.Provider
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.cfg.Model),
		MaxTokens:   int64(maxTokens),
		Messages:    toSDKMessages(req.Messages),
		Temperature: sdk.Float(req.Temperature),
	}

	system := req.System
	if req.JSONMode {
		system = strings.TrimSpace(system + "\n\n" + jsonOnlyInstruction)
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, resilience.StatusError(fmt.Errorf("anthropic: create message: %w", err), apiErr.StatusCode)
		}
		return nil, fmt.Errorf("anthropic: create message: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, fmt.Errorf("%w: anthropic returned no text content", recipe.ErrMalformedResponse)
	}

	return &provider.Response{
		Content: content,
		Model:   string(msg.Model),
		Usage: provider.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// Close 實作 provider.Provider
func (c *Client) Close() error { return nil }

func toSDKMessages(msgs []provider.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}
