package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/resilience"
	"recipe-extractor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultYouTubeAPI  = "https://www.googleapis.com/youtube/v3"
	defaultYouTubePage = "https://www.youtube.com"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	captionScope       = "https://www.googleapis.com/auth/youtube.force-ssl"
)

var shortDescriptionPattern = regexp.MustCompile(`"shortDescription":("(?:[^"\\]|\\.)*")`)

// YouTubeOptions YouTube 來源設定
type YouTubeOptions struct {
	APIKey       string
	BaseURL      string
	PageBaseURL  string
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	UserAgent    string
	Timeout      time.Duration
}

// YouTube Data API v3 來源，無 API 金鑰時改抓影片頁面
type YouTube struct {
	opts     YouTubeOptions
	api      *resty.Client
	page     *resty.Client
	captions *resty.Client // 需 OAuth；未設定時為 nil
}

// NewYouTube 創建 YouTube 來源
func NewYouTube(opts YouTubeOptions) *YouTube {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYouTubeAPI
	}
	if opts.PageBaseURL == "" {
		opts.PageBaseURL = defaultYouTubePage
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	y := &YouTube{
		opts: opts,
		api:  resty.New().SetBaseURL(opts.BaseURL).SetTimeout(opts.Timeout),
		page: resty.New().SetBaseURL(opts.PageBaseURL).SetTimeout(opts.Timeout).
			SetHeader("Accept-Language", "en-US,en;q=0.9"),
	}
	if opts.UserAgent != "" {
		y.page.SetHeader("User-Agent", opts.UserAgent)
	}

	if opts.ClientID != "" && opts.ClientSecret != "" && opts.RefreshToken != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
			Scopes:       []string{captionScope},
		}
		// token source 存活於整個程序，不綁定單一請求的 context
		httpClient := oauthCfg.Client(context.Background(), &oauth2.Token{RefreshToken: opts.RefreshToken})
		y.captions = resty.NewWithClient(httpClient).SetBaseURL(opts.BaseURL).SetTimeout(opts.Timeout)
	}
	return y
}

type youTubeVideos struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Metadata 實作 Provider
func (y *YouTube) Metadata(ctx context.Context, ref Ref) (*Metadata, error) {
	if y.opts.APIKey != "" {
		md, err := y.apiMetadata(ctx, ref.ID)
		if err == nil {
			return md, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		common.LogWarn("YouTube API 失敗，改抓影片頁面", zap.String("video_id", ref.ID), zap.Error(err))
	}
	return y.pageMetadata(ctx, ref.ID)
}

func (y *YouTube) apiMetadata(ctx context.Context, id string) (*Metadata, error) {
	resp, err := y.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"part": "snippet", "id": id, "key": y.opts.APIKey}).
		Get("/videos")
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	if !common.IsSuccessStatus(resp.StatusCode()) {
		return nil, resilience.StatusError(fmt.Errorf("youtube videos: status %d", resp.StatusCode()), resp.StatusCode())
	}

	var out youTubeVideos
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: youtube videos: %v", recipe.ErrMalformedResponse, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("youtube video %s not found", id)
	}
	s := out.Items[0].Snippet
	return &Metadata{
		Title:        recipe.CleanText(s.Title),
		Description:  strings.TrimSpace(s.Description),
		ThumbnailURL: bestThumbnail(s.Thumbnails),
		Channel:      s.ChannelTitle,
	}, nil
}

func bestThumbnail(thumbs map[string]struct {
	URL string `json:"url"`
}) string {
	for _, k := range []string{"maxres", "standard", "high", "medium", "default"} {
		if t, ok := thumbs[k]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// pageMetadata 從影片頁面的 og 標籤與內嵌播放器資料取得中繼資料
func (y *YouTube) pageMetadata(ctx context.Context, id string) (*Metadata, error) {
	resp, err := y.page.R().
		SetContext(ctx).
		SetQueryParam("v", id).
		Get("/watch")
	if err != nil {
		return nil, fmt.Errorf("youtube page: %w", err)
	}
	if !common.IsSuccessStatus(resp.StatusCode()) {
		return nil, resilience.StatusError(fmt.Errorf("youtube page: status %d", resp.StatusCode()), resp.StatusCode())
	}

	page, err := parser.NewPage(y.opts.PageBaseURL+"/watch?v="+id, resp.String())
	if err != nil {
		return nil, err
	}
	md := &Metadata{
		Title:        recipe.CleanText(parser.Meta(page.Doc, "og:title", "title")),
		Description:  parser.Meta(page.Doc, "og:description", "description"),
		ThumbnailURL: parser.Meta(page.Doc, "og:image"),
	}
	// og:description 會被截斷，優先使用播放器資料中的完整描述
	if m := shortDescriptionPattern.FindStringSubmatch(page.HTML); m != nil {
		var full string
		if err := json.Unmarshal([]byte(m[1]), &full); err == nil && strings.TrimSpace(full) != "" {
			md.Description = strings.TrimSpace(full)
		}
	}
	if md.Title == "" {
		return nil, fmt.Errorf("%w: youtube page has no title", recipe.ErrMalformedResponse)
	}
	if md.ThumbnailURL == "" {
		md.ThumbnailURL = "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
	}
	return md, nil
}

type captionList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Language  string `json:"language"`
			TrackKind string `json:"trackKind"`
		} `json:"snippet"`
	} `json:"items"`
}

// Transcript 實作 Provider，需設定 OAuth 憑證
func (y *YouTube) Transcript(ctx context.Context, ref Ref) (string, error) {
	if y.captions == nil {
		return "", fmt.Errorf("%w: youtube captions require oauth credentials", recipe.ErrTranscriptUnavailable)
	}

	resp, err := y.captions.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"part": "snippet", "videoId": ref.ID}).
		Get("/captions")
	if err != nil {
		return "", fmt.Errorf("youtube captions: %w", err)
	}
	if !common.IsSuccessStatus(resp.StatusCode()) {
		return "", resilience.StatusError(fmt.Errorf("youtube captions: status %d", resp.StatusCode()), resp.StatusCode())
	}
	var list captionList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return "", fmt.Errorf("%w: youtube captions: %v", recipe.ErrMalformedResponse, err)
	}

	trackID := pickTrack(list)
	if trackID == "" {
		return "", fmt.Errorf("%w: no caption tracks", recipe.ErrTranscriptUnavailable)
	}

	resp, err = y.captions.R().
		SetContext(ctx).
		SetQueryParam("tfmt", "srt").
		Get("/captions/" + trackID)
	if err != nil {
		return "", fmt.Errorf("youtube caption download: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusNotFound:
		return "", fmt.Errorf("%w: caption download status %d", recipe.ErrTranscriptUnavailable, resp.StatusCode())
	case !common.IsSuccessStatus(resp.StatusCode()):
		return "", resilience.StatusError(fmt.Errorf("youtube caption download: status %d", resp.StatusCode()), resp.StatusCode())
	}

	text := CaptionsToText(resp.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty captions", recipe.ErrTranscriptUnavailable)
	}
	return text, nil
}

// pickTrack 優先英文人工字幕，其次英文自動字幕，最後任一軌
func pickTrack(list captionList) string {
	best, bestRank := "", 99
	for _, item := range list.Items {
		rank := 4
		english := strings.HasPrefix(strings.ToLower(item.Snippet.Language), "en")
		asr := strings.EqualFold(item.Snippet.TrackKind, "asr")
		switch {
		case english && !asr:
			rank = 1
		case english:
			rank = 2
		case !asr:
			rank = 3
		}
		if rank < bestRank {
			best, bestRank = item.ID, rank
		}
	}
	return best
}

// IsTranscriptUnavailable 沒有字幕不是錯誤，只是略過字幕層級
func IsTranscriptUnavailable(err error) bool {
	return errors.Is(err, recipe.ErrTranscriptUnavailable)
}
