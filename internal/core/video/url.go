// Package video 影音平台網址辨識、描述解析與中繼資料/字幕來源
package video

import (
	"net/url"
	"regexp"
	"strings"

	"recipe-extractor/internal/core/recipe"
)

// Ref 已辨識的影片
type Ref struct {
	Platform recipe.Platform `json:"platform"`
	ID       string          `json:"id"`
	URL      string          `json:"url"`
}

var (
	youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)
	tikTokIDPattern  = regexp.MustCompile(`/video/(\d+)`)
)

// Classify 辨識影音平台網址；hint 為 web 時一律視為網頁
func Classify(u *url.URL, hint recipe.Platform) (Ref, bool) {
	if u == nil || hint == recipe.PlatformWeb {
		return Ref{}, false
	}
	host := recipe.NormalizeHost(u.Host)
	switch {
	case isYouTubeHost(host):
		id := youTubeID(host, u)
		if id == "" {
			return Ref{}, false
		}
		return Ref{Platform: recipe.PlatformYouTube, ID: id, URL: "https://www.youtube.com/watch?v=" + id}, true
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		canonical := "https://" + u.Host + u.EscapedPath()
		id := ""
		if m := tikTokIDPattern.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		} else {
			// vm.tiktok.com/ZMabc123/ 短網址
			id = strings.Trim(u.Path, "/")
		}
		if id == "" {
			return Ref{}, false
		}
		return Ref{Platform: recipe.PlatformTikTok, ID: id, URL: canonical}, true
	}
	return Ref{}, false
}

func isYouTubeHost(host string) bool {
	switch host {
	case "youtube.com", "youtu.be", "youtube-nocookie.com", "music.youtube.com":
		return true
	}
	return false
}

func youTubeID(host string, u *url.URL) string {
	var id string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case host == "youtu.be":
		id = segments[0]
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live" || segments[0] == "v"):
		id = segments[1]
	}
	if !youTubeIDPattern.MatchString(id) {
		return ""
	}
	return id
}
