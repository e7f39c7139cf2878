package cache

import (
	"net/url"
	"sort"
	"strings"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/video"
)

// 不影響內容的追蹤參數
var trackingParams = map[string]bool{
	"fbclid": true, "gclid": true, "si": true, "igshid": true, "mc_cid": true, "mc_eid": true, "ref": true,
}

// NormalizeKey 將來源網址正規化為快取鍵：
// 小寫主機、去除片段與追蹤參數、參數排序、去除結尾斜線，影片網址轉為標準形式
func NormalizeKey(source string) (string, error) {
	u, err := recipe.ParseSource(source)
	if err != nil {
		return "", err
	}
	if ref, ok := video.Classify(u, recipe.PlatformUnknown); ok && ref.Platform == recipe.PlatformYouTube {
		return ref.URL, nil
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	query := u.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := query[k]
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	u.RawQuery = b.String()

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}
