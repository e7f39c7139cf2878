// Package nutrition 合併結構化資料與 HTML 營養區塊，並正規化為每份數值
package nutrition

import (
	"regexp"
	"strings"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DefaultCaloriesCutoff 超過此熱量視為整份食譜的數值
const DefaultCaloriesCutoff = 1000.0

var sectionSelectors = []string{
	`[class*="nutrition"]`,
	`[id*="nutrition"]`,
	`[class*="nutrient"]`,
	`[itemprop="nutrition"]`,
}

// 營養素名稱樣式，數值可在名稱前或後
var nutrientLabels = []struct {
	key     string
	pattern string
}{
	{"saturated_fat", `saturated\s+fat`},
	{"trans_fat", `trans\s+fat`},
	{"calories", `calories|kcal|energy`},
	{"protein", `protein`},
	{"carbs", `total\s+carbohydrates?|carbohydrates?|carbs`},
	{"fat", `total\s+fat|fat`},
	{"fiber", `dietary\s+fib(?:er|re)|fib(?:er|re)`},
	{"sugar", `total\s+sugars?|sugars?`},
	{"sodium", `sodium`},
	{"cholesterol", `cholesterol`},
	{"potassium", `potassium`},
	{"calcium", `calcium`},
	{"iron", `iron`},
	{"vitamin_a", `vitamin\s+a`},
	{"vitamin_c", `vitamin\s+c`},
}

type labelMatcher struct {
	key    string
	after  *regexp.Regexp
	before *regexp.Regexp
}

var (
	matchers      = buildMatchers()
	leadingNumber = regexp.MustCompile(`^\s*\d`)
)

func buildMatchers() []labelMatcher {
	const number = `(\d+(?:,\d{3})*(?:[.,]\d+)?\s*(?:kcal|cal|mg|mcg|µg|g|%)?)`
	out := make([]labelMatcher, 0, len(nutrientLabels))
	for _, l := range nutrientLabels {
		out = append(out, labelMatcher{
			key: l.key,
			// "Protein: 12g"
			after: regexp.MustCompile(`(?i)\b(?:` + l.pattern + `)\b\s*:?\s*` + number),
			// "12g protein"
			before: regexp.MustCompile(`(?i)` + number + `\s*(?:of\s+)?\b(?:` + l.pattern + `)\b`),
		})
	}
	return out
}

// Extractor 營養資訊擷取器
type Extractor struct {
	caloriesCutoff float64
}

// NewExtractor 創建擷取器，cutoff <= 0 時使用預設值
func NewExtractor(cutoff float64) *Extractor {
	if cutoff <= 0 {
		cutoff = DefaultCaloriesCutoff
	}
	return &Extractor{caloriesCutoff: cutoff}
}

// Extract 結構化資料優先，HTML 區塊補齊缺少或為零的欄位。
// page 可為 nil；沒有任何營養資訊時回傳 nil。
func (e *Extractor) Extract(page *parser.Page, structured *recipe.NutritionFacts, servings *int) *recipe.NutritionFacts {
	var fromHTML *recipe.NutritionFacts
	if page != nil && page.Doc != nil {
		fromHTML = ParseSection(page.Doc)
	}

	var out *recipe.NutritionFacts
	switch {
	case !structured.IsEmpty():
		out = structured.Clone()
		if out.Source == "" {
			out.Source = recipe.NutritionFromStructuredData
		}
		if out.MergeGap(fromHTML) {
			out.Source = recipe.NutritionMerged
		}
	case !fromHTML.IsEmpty():
		out = fromHTML
	default:
		return nil
	}

	e.normalize(out, servings)
	return out
}

// normalize 熱量超過門檻時除以份數，已是每份數值者不再處理
func (e *Extractor) normalize(n *recipe.NutritionFacts, servings *int) {
	if n.Calories == nil || n.Calories.Value <= e.caloriesCutoff {
		n.PerServing = true
		return
	}
	if servings == nil || *servings <= 0 {
		n.PerServing = false
		return
	}
	common.LogDebug("營養數值換算為每份",
		zap.Float64("calories", n.Calories.Value),
		zap.Int("servings", *servings),
	)
	n.Scale(float64(*servings))
	n.PerServing = true
}

// ParseSection 解析頁面上的營養區塊
func ParseSection(doc *goquery.Document) *recipe.NutritionFacts {
	var text string
	for _, sel := range sectionSelectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, parser.SpacedText(s))
		})
		if len(parts) > 0 {
			text = strings.Join(parts, " ")
			break
		}
	}
	if text == "" {
		return nil
	}
	n := ParseText(text)
	if n == nil {
		return nil
	}
	n.Source = recipe.NutritionFromHTMLSection
	return n
}

// ParseText 從自由文字解析營養素
func ParseText(text string) *recipe.NutritionFacts {
	n := &recipe.NutritionFacts{}
	// "320 Calories 12g Protein" 形式時數值在名稱前
	numberFirst := leadingNumber.MatchString(text)
	for _, m := range matchers {
		first, second := m.after, m.before
		if numberFirst {
			first, second = second, first
		}
		re := first
		loc := first.FindStringSubmatchIndex(text)
		if loc == nil {
			re = second
			loc = second.FindStringSubmatchIndex(text)
		}
		if loc == nil {
			continue
		}
		if v, ok := recipe.ParseNutrient(text[loc[2]:loc[3]], recipe.DefaultNutrientUnit(m.key)); ok {
			n.Set(m.key, v)
		}
		// 飽和與反式脂肪先取出，避免被當成總脂肪
		if strings.HasSuffix(m.key, "_fat") {
			text = re.ReplaceAllString(text, " ")
		}
	}
	if n.IsEmpty() {
		return nil
	}
	return n
}
