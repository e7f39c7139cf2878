// Package generic 無站點知識的啟發式網頁擷取器
package generic

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultMaxIngredients = 20
	minInstructionLen     = 10
	maxLineLen            = 200
	shortPhraseWords      = 8
	shortPunctuatedLen    = 60
	enoughInstructions    = 5
)

var (
	ingredientSelectors = []string{
		`[class*="ingredient"] li`,
		`[class*="ingredient"] p`,
		`.ingredients li`,
		`.recipe-ingredients li`,
		`[itemprop="ingredients"]`,
		`[itemprop="recipeIngredient"]`,
		`li[class*="ingredient"]`,
		`p[class*="ingredient"]`,
		`[class*="ingredient"] span`,
	}
	instructionSelectors = []string{
		`[class*="instruction"] li`,
		`[class*="direction"] li`,
		`[class*="method"] li`,
		`[class*="step"] li`,
		`[itemprop="recipeInstructions"] li`,
		`[class*="instruction"] p`,
		`[class*="direction"] p`,
		`[itemprop="recipeInstructions"] p`,
		`ol[class*="instruction"] li`,
		`ol[class*="direction"] li`,
	}
	titleSelectors = []string{
		`h1[class*="recipe"]`,
		`h1[class*="title"]`,
		`.recipe-title`,
		`h1`,
	}
	noiseSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe, svg, " +
		`[class*="comment"], [class*="related"], [class*="newsletter"], [class*="share"], [class*="breadcrumb"]`

	quantityUnitPattern    = regexp.MustCompile(`(?i)(\d|½|¼|¾|⅓|⅔|⅛|\ba\s+(?:pinch|dash|handful)\b)[\d\s/.\-½¼¾⅓⅔⅛]*\s*(cups?|c\.|tablespoons?|tbsps?|tbs|teaspoons?|tsps?|pounds?|lbs?|ounces?|oz|grams?|g\b|kg|kilograms?|ml|milliliters?|l\b|liters?|litres?|pinch(?:es)?|dash(?:es)?|cloves?|cans?|packages?|pkgs?|sticks?|slices?|pieces?|large|medium|small|whole|bunch(?:es)?|sprigs?|stalks?|heads?|quarts?|qt|pints?|pt|inch(?:es)?|eggs?)\b`)
	leadingQuantityPattern = regexp.MustCompile(`^\s*(\d+([./]\d+)?|½|¼|¾|⅓|⅔|⅛)\s+\S`)
	stepPrefixPattern      = regexp.MustCompile(`(?i)^\s*(step\s*\d+|\d+\s*[.):])`)

	servingsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*(?:servings?|people|portions?)\b`),
		regexp.MustCompile(`(?i)\bserves?\s*:?\s*(\d+)`),
		regexp.MustCompile(`(?i)\byields?\s*:?\s*(\d+)`),
		regexp.MustCompile(`(?i)\bmakes?\s*:?\s*(\d+)`),
	}
	timePatterns = map[recipe.Field]*regexp.Regexp{
		recipe.FieldPrepTime:  regexp.MustCompile(`(?i)prep(?:aration)?\s*time\s*:?\s*((?:\d+\s*(?:hours?|hrs?|h|minutes?|mins?|m)\s*)+)`),
		recipe.FieldCookTime:  regexp.MustCompile(`(?i)cook(?:ing)?\s*time\s*:?\s*((?:\d+\s*(?:hours?|hrs?|h|minutes?|mins?|m)\s*)+)`),
		recipe.FieldTotalTime: regexp.MustCompile(`(?i)total\s*time\s*:?\s*((?:\d+\s*(?:hours?|hrs?|h|minutes?|mins?|m)\s*)+)`),
	}
)

// Parser 啟發式擷取器
type Parser struct {
	maxIngredients int
}

// NewParser 創建啟發式擷取器，maxIngredients <= 0 時使用預設上限
func NewParser(maxIngredients int) *Parser {
	if maxIngredients <= 0 {
		maxIngredients = defaultMaxIngredients
	}
	return &Parser{maxIngredients: maxIngredients}
}

// Parse 實作 parser.Parser，同時找到食材與步驟才算成功
func (p *Parser) Parse(page *parser.Page) (*recipe.Candidate, bool) {
	doc := page.Clone()
	tier := recipe.TierGeneric
	c := recipe.NewCandidate(page.URL)

	// meta 與 title 要在移除雜訊前讀取
	c.Title = title(doc)
	c.Description = recipe.CleanDescription(parser.Meta(doc, "og:description", "description"))
	c.ImageURL = image(doc, page.URL)

	doc.Find(noiseSelectors).Remove()

	c.Ingredients = p.ingredients(doc, page.URL)
	c.Instructions = instructions(doc)

	body := parser.SpacedText(doc.Find("body"))
	if v, ok := servings(body); ok {
		c.Servings = recipe.IntPtr(v)
	}
	for field, dst := range map[recipe.Field]**int{
		recipe.FieldPrepTime:  &c.PrepMinutes,
		recipe.FieldCookTime:  &c.CookMinutes,
		recipe.FieldTotalTime: &c.TotalMinutes,
	} {
		if m := timePatterns[field].FindStringSubmatch(body); m != nil {
			if v, ok := recipe.ParseMinutes(m[1]); ok {
				*dst = recipe.IntPtr(v)
			}
		}
	}

	for field, ok := range map[recipe.Field]bool{
		recipe.FieldTitle:        c.Title != "",
		recipe.FieldDescription:  c.Description != "",
		recipe.FieldImage:        c.ImageURL != "",
		recipe.FieldIngredients:  len(c.Ingredients) > 0,
		recipe.FieldInstructions: len(c.Instructions) > 0,
		recipe.FieldServings:     c.Servings != nil,
		recipe.FieldPrepTime:     c.PrepMinutes != nil,
		recipe.FieldCookTime:     c.CookMinutes != nil,
		recipe.FieldTotalTime:    c.TotalMinutes != nil,
	} {
		if ok {
			c.Provenance[field] = tier
		}
	}

	return c, c.HasIngredients() && c.HasInstructions()
}

func title(doc *goquery.Document) string {
	if t := parser.FirstText(doc, titleSelectors...); t != "" {
		return t
	}
	t := parser.Meta(doc, "og:title")
	if t == "" {
		t = parser.Text(doc.Find("title").First())
	}
	return trimSiteSuffix(recipe.CleanText(t))
}

// trimSiteSuffix "Best Pancakes | Site" -> "Best Pancakes"
func trimSiteSuffix(t string) string {
	for _, sep := range []string{" | ", " - ", " – ", " — "} {
		if i := strings.LastIndex(t, sep); i > 0 {
			return strings.TrimSpace(t[:i])
		}
	}
	return t
}

func (p *Parser) ingredients(doc *goquery.Document, pageURL string) []string {
	var out []string
	for _, sel := range ingredientSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := parser.Text(s); isIngredient(text, true) {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			break
		}
	}
	// 沒有食材容器時掃描所有清單項目，僅接受帶數量單位者
	if len(out) == 0 {
		doc.Find("li").Each(func(_ int, s *goquery.Selection) {
			if text := parser.Text(s); isIngredient(text, false) {
				out = append(out, text)
			}
		})
	}

	cleaned := recipe.CleanList(out, recipe.CleanIngredient, 2)
	if len(cleaned) > p.maxIngredients {
		common.LogWarn("食材數量超過上限，已截斷",
			zap.String("url", pageURL),
			zap.Int("found", len(cleaned)),
			zap.Int("limit", p.maxIngredients),
		)
		cleaned = cleaned[:p.maxIngredients]
	}
	return cleaned
}

// isIngredient inContainer 表示節點位於食材區塊內，允許短詞
func isIngredient(text string, inContainer bool) bool {
	n := len([]rune(text))
	if n <= 2 || n >= maxLineLen || skipIngredient(text) {
		return false
	}
	if quantityUnitPattern.MatchString(text) || leadingQuantityPattern.MatchString(text) {
		return true
	}
	if n < shortPunctuatedLen && strings.ContainsAny(text, "()/") {
		return true
	}
	return inContainer && len(strings.Fields(text)) <= shortPhraseWords
}

func instructions(doc *goquery.Document) []string {
	var out []string
	for _, sel := range instructionSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := parser.Text(s); isInstruction(text) {
				out = append(out, text)
			}
		})
		if len(out) >= enoughInstructions {
			break
		}
	}
	if len(out) == 0 {
		doc.Find("ol li").Each(func(_ int, s *goquery.Selection) {
			if text := parser.Text(s); isInstruction(text) {
				out = append(out, text)
			}
		})
	}
	if len(out) == 0 {
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			text := parser.Text(s)
			if len(text) > 20 && (stepPrefixPattern.MatchString(text) || hasActionWord(text)) && isInstruction(text) {
				out = append(out, text)
			}
		})
	}
	return recipe.CleanList(out, recipe.CleanInstruction, minInstructionLen)
}

func isInstruction(text string) bool {
	if len([]rune(recipe.CleanInstruction(text))) < minInstructionLen || skipInstruction(text) {
		return false
	}
	return hasActionWord(text) || stepPrefixPattern.MatchString(text) || len(strings.Fields(text)) > 5
}

func servings(body string) (int, bool) {
	for _, re := range servingsPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 && v <= 100 {
				return v, true
			}
		}
	}
	return 0, false
}

func image(doc *goquery.Document, pageURL string) string {
	if og := parser.Meta(doc, "og:image", "twitter:image"); og != "" {
		return recipe.ResolveURL(pageURL, og)
	}
	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := parser.ImageSource(img)
		if src == "" || skipImage(src, img) {
			return true
		}
		found = recipe.ResolveURL(pageURL, src)
		return found == ""
	})
	return found
}

func skipImage(src string, img *goquery.Selection) bool {
	lower := strings.ToLower(src)
	alt, _ := img.Attr("alt")
	class, _ := img.Attr("class")
	hay := lower + " " + strings.ToLower(alt) + " " + strings.ToLower(class)
	for _, w := range imageSkipWords {
		if strings.Contains(hay, w) {
			return true
		}
	}
	return strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".gif")
}
