package video

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"recipe-extractor/internal/core/recipe"
)

// Metadata 影片中繼資料
type Metadata struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Channel      string `json:"channel,omitempty"`
}

// Provider 影音平台資料來源
type Provider interface {
	// Metadata 取得標題、描述與縮圖
	Metadata(ctx context.Context, ref Ref) (*Metadata, error)
	// Transcript 取得字幕全文，沒有字幕時回傳 recipe.ErrTranscriptUnavailable
	Transcript(ctx context.Context, ref Ref) (string, error)
}

// Providers 依平台分派
type Providers map[recipe.Platform]Provider

// For 取得平台對應的來源
func (p Providers) For(platform recipe.Platform) (Provider, error) {
	if prov, ok := p[platform]; ok && prov != nil {
		return prov, nil
	}
	return nil, fmt.Errorf("%w: no video provider for %s", recipe.ErrProviderUnavailable, platform)
}

var (
	srtIndexPattern        = regexp.MustCompile(`^\d+$`)
	cueTimingPattern       = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?[.,]\d{3}\s*-->`)
	markupPattern          = regexp.MustCompile(`<[^>]+>`)
	transcriptNoisePattern = regexp.MustCompile(`^\[(?:music|applause|laughter|inaudible)\]$`)
)

// CaptionsToText 將 SRT/VTT 字幕轉為純文字，移除序號、時間軸、標記並合併重複行
func CaptionsToText(captions string) string {
	var lines []string
	prev := ""
	for _, line := range strings.Split(strings.ReplaceAll(captions, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", line == "WEBVTT",
			strings.HasPrefix(line, "Kind:"), strings.HasPrefix(line, "Language:"), strings.HasPrefix(line, "NOTE"),
			srtIndexPattern.MatchString(line), cueTimingPattern.MatchString(line):
			continue
		}
		line = recipe.CleanText(markupPattern.ReplaceAllString(line, ""))
		if line == "" || line == prev || transcriptNoisePattern.MatchString(strings.ToLower(line)) {
			continue
		}
		lines = append(lines, line)
		prev = line
	}
	return strings.Join(lines, " ")
}
