package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTikTokOEmbed = "https://www.tiktok.com/oembed"
	maxTitleRunes       = 100
)

// TikTok oEmbed 來源；TikTok 不提供公開字幕
type TikTok struct {
	client    *resty.Client
	oembedURL string
}

// NewTikTok 創建 TikTok 來源
func NewTikTok(oembedURL string, timeout time.Duration) *TikTok {
	if oembedURL == "" {
		oembedURL = defaultTikTokOEmbed
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TikTok{client: resty.New().SetTimeout(timeout), oembedURL: oembedURL}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Metadata 實作 Provider；oEmbed 的 title 即影片說明文字
func (t *TikTok) Metadata(ctx context.Context, ref Ref) (*Metadata, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("url", ref.URL).
		Get(t.oembedURL)
	if err != nil {
		return nil, fmt.Errorf("tiktok oembed: %w", err)
	}
	if !common.IsSuccessStatus(resp.StatusCode()) {
		return nil, resilience.StatusError(fmt.Errorf("tiktok oembed: status %d", resp.StatusCode()), resp.StatusCode())
	}

	var out oembedResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: tiktok oembed: %v", recipe.ErrMalformedResponse, err)
	}
	caption := strings.TrimSpace(out.Title)
	return &Metadata{
		Title:        captionTitle(caption),
		Description:  caption,
		ThumbnailURL: out.ThumbnailURL,
		Channel:      out.AuthorName,
	}, nil
}

// Transcript 實作 Provider
func (t *TikTok) Transcript(context.Context, Ref) (string, error) {
	return "", fmt.Errorf("%w: tiktok has no public captions", recipe.ErrTranscriptUnavailable)
}

// captionTitle 取說明文字第一行並移除 hashtag
func captionTitle(caption string) string {
	first := strings.SplitN(caption, "\n", 2)[0]
	var words []string
	for _, w := range strings.Fields(first) {
		if strings.HasPrefix(w, "#") || strings.HasPrefix(w, "@") {
			continue
		}
		words = append(words, w)
	}
	return common.Truncate(strings.Join(words, " "), maxTitleRunes)
}
