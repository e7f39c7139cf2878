package recipe

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// 步驟編號、項目符號
	stepMarkerPattern = regexp.MustCompile(`(?i)^\s*(?:step\s*\d+\s*[:.)-]?|\d+\s*[.)](?:\s|$)|\d+\s*[-–:]\s|[•·▢☐✓✔*\-–—]+)\s*`)
	// 說明性後綴分隔符號
	suffixSeparators = []string{" – ", " — ", " - ", ": "}
	// 後綴開頭為這些字時視為說明
	explanatoryCues = []string{
		"i ", "i'", "we ", "you ", "this ", "these ", "see ", "note", "or ", "optional",
		"such as", "for ", "if ", "to taste", "adjust", "depending", "about ", "plus more",
		"divided", "any ", "preferably", "homemade", "store-bought", "use ",
	}
	firstIntPattern  = regexp.MustCompile(`\d+`)
	isoDurationRegex = regexp.MustCompile(`(?i)^P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	hoursPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minutesPattern   = regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?|m)\b`)
)

// CleanText 解碼 HTML 實體並合併空白
func CleanText(s string) string {
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanIngredient 清理單一食材文字並移除說明性後綴
func CleanIngredient(s string) string {
	s = CleanText(s)
	s = strings.TrimLeft(s, "•·▢☐✓✔*-–— ")
	return stripExplanatorySuffix(s)
}

// CleanDescription 清理描述文字
func CleanDescription(s string) string {
	s = CleanText(s)
	if i := strings.Index(s, " | "); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// CleanInstruction 清理單一步驟，移除步驟編號與項目符號
func CleanInstruction(s string) string {
	s = CleanText(s)
	for {
		stripped := stepMarkerPattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.TrimSpace(s)
}

// stripExplanatorySuffix 分隔符號前為群組標題時保留後段；後段為說明時保留前段
func stripExplanatorySuffix(s string) string {
	for _, sep := range suffixSeparators {
		idx := strings.Index(s, sep)
		if idx <= 0 {
			continue
		}
		head := strings.TrimSpace(s[:idx])
		tail := strings.TrimSpace(s[idx+len(sep):])
		if tail == "" {
			return head
		}
		// "For the sauce: 2 tbsp soy sauce"
		if sep == ": " && !containsDigit(head) && startsWithDigit(tail) {
			return tail
		}
		if len([]rune(head)) < 3 {
			continue
		}
		if isExplanatory(tail) {
			return head
		}
	}
	return s
}

func isExplanatory(tail string) bool {
	lower := strings.ToLower(tail)
	for _, cue := range explanatoryCues {
		if strings.HasPrefix(lower, cue) {
			return true
		}
	}
	return len(strings.Fields(tail)) > 6
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r) || strings.ContainsRune("½¼¾⅓⅔⅛", r)
	}
	return false
}

// CleanList 清理並去重，空字串與長度不足者捨棄
func CleanList(items []string, clean func(string) string, minLen int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = clean(item)
		if len([]rune(item)) < minLen {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// ParseISODuration 解析 ISO 8601 時長（PT1H30M）為分鐘
func ParseISODuration(s string) (int, bool) {
	m := isoDurationRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	var minutes float64
	units := []float64{24 * 60, 60, 1, 1.0 / 60}
	matched := false
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, false
		}
		minutes += v * unit
		matched = true
	}
	if !matched {
		return 0, false
	}
	return int(minutes + 0.5), true
}

// ParseMinutes 解析 "1 hr 30 mins"、"45 minutes" 或 ISO 時長為分鐘
func ParseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(strings.ToUpper(s), "P") {
		if v, ok := ParseISODuration(s); ok {
			return v, true
		}
	}
	total := 0.0
	found := false
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		total += h * 60
		found = true
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		v, _ := strconv.Atoi(m[1])
		total += float64(v)
		found = true
	}
	if !found {
		if v, err := strconv.Atoi(s); err == nil {
			return v, v > 0
		}
		return 0, false
	}
	return int(total + 0.5), total > 0
}

// ParseServings 從 "Serves 4-6"、"12 cookies" 取出第一個整數
func ParseServings(s string) (int, bool) {
	m := firstIntPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil || v <= 0 || v > 1000 {
		return 0, false
	}
	return v, true
}
