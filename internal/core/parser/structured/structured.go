// Package structured 解析 schema.org Recipe 結構化資料（JSON-LD 與 microdata）
package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// 成功條件：標題、至少一項食材、至少三個足夠長的步驟
const (
	minIngredients  = 1
	minLongSteps    = 3
	defaultStepSize = 20
	maxWalkDepth    = 6
)

// Parser schema.org Recipe 擷取器
type Parser struct {
	minStepLength int
}

// NewParser 創建結構化資料擷取器，minStepLength 為步驟最小長度（不含）
func NewParser(minStepLength int) *Parser {
	if minStepLength <= 0 {
		minStepLength = defaultStepSize
	}
	return &Parser{minStepLength: minStepLength}
}

// Parse 實作 parser.Parser
func (p *Parser) Parse(page *parser.Page) (*recipe.Candidate, bool) {
	node := findRecipeNode(page.Doc)
	var c *recipe.Candidate
	if node != nil {
		c = fromJSONLD(node, page.URL)
	} else {
		c = fromMicrodata(page.Doc, page.URL)
	}
	if c == nil {
		return nil, false
	}
	return c, p.meetsCriteria(c)
}

// Criteria 回傳未達成功條件的原因，達成時為 nil
func (p *Parser) Criteria(c *recipe.Candidate) error {
	if c == nil {
		return fmt.Errorf("%w: no recipe markup", recipe.ErrTierCriteria)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: missing title", recipe.ErrTierCriteria)
	}
	if len(c.Ingredients) < minIngredients {
		return fmt.Errorf("%w: no ingredients", recipe.ErrTierCriteria)
	}
	if n := p.longSteps(c.Instructions); n < minLongSteps {
		return fmt.Errorf("%w: %d steps longer than %d chars", recipe.ErrTierCriteria, n, p.minStepLength)
	}
	return nil
}

func (p *Parser) meetsCriteria(c *recipe.Candidate) bool {
	return p.Criteria(c) == nil
}

func (p *Parser) longSteps(steps []string) int {
	n := 0
	for _, s := range steps {
		if len([]rune(s)) > p.minStepLength {
			n++
		}
	}
	return n
}

// findRecipeNode 在所有 ld+json 區塊中尋找 @type 為 Recipe 的物件
func findRecipeNode(doc *goquery.Document) map[string]interface{} {
	var found map[string]interface{}
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		raw = strings.TrimSuffix(raw, ";")
		if raw == "" {
			return true
		}
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			common.LogDebug("ld+json 解析失敗", zap.Error(err))
			return true
		}
		found = walk(data, 0)
		return found == nil
	})
	return found
}

func walk(v interface{}, depth int) map[string]interface{} {
	if depth > maxWalkDepth {
		return nil
	}
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if r := walk(item, depth+1); r != nil {
				return r
			}
		}
	case map[string]interface{}:
		if isRecipeType(t["@type"]) {
			return t
		}
		for _, key := range []string{"@graph", "mainEntity", "mainEntityOfPage", "itemListElement", "item"} {
			if child, ok := t[key]; ok {
				if r := walk(child, depth+1); r != nil {
					return r
				}
			}
		}
	}
	return nil
}

func isRecipeType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(strings.TrimPrefix(t, "http://schema.org/"), "Recipe") ||
			strings.EqualFold(strings.TrimPrefix(t, "https://schema.org/"), "Recipe")
	case []interface{}:
		for _, item := range t {
			if isRecipeType(item) {
				return true
			}
		}
	}
	return false
}

func fromJSONLD(node map[string]interface{}, pageURL string) *recipe.Candidate {
	c := recipe.NewCandidate(pageURL)
	tier := recipe.TierStructuredData

	set := func(f recipe.Field, ok bool) {
		if ok {
			c.Provenance[f] = tier
		}
	}

	c.Title = recipe.CleanText(str(node["name"]))
	if c.Title == "" {
		c.Title = recipe.CleanText(str(node["headline"]))
	}
	set(recipe.FieldTitle, c.Title != "")

	c.Description = recipe.CleanDescription(str(node["description"]))
	set(recipe.FieldDescription, c.Description != "")

	rawIngredients := strs(node["recipeIngredient"])
	if len(rawIngredients) == 0 {
		rawIngredients = strs(node["ingredients"])
	}
	c.Ingredients = recipe.CleanList(rawIngredients, recipe.CleanIngredient, 1)
	set(recipe.FieldIngredients, len(c.Ingredients) > 0)

	c.Instructions = recipe.CleanList(instructions(node["recipeInstructions"], 0), recipe.CleanInstruction, 1)
	set(recipe.FieldInstructions, len(c.Instructions) > 0)

	if v, ok := servings(node["recipeYield"]); ok {
		c.Servings = recipe.IntPtr(v)
		set(recipe.FieldServings, true)
	}
	for _, d := range []struct {
		key   string
		field recipe.Field
		dst   **int
	}{
		{"prepTime", recipe.FieldPrepTime, &c.PrepMinutes},
		{"cookTime", recipe.FieldCookTime, &c.CookMinutes},
		{"totalTime", recipe.FieldTotalTime, &c.TotalMinutes},
	} {
		if v, ok := recipe.ParseMinutes(str(node[d.key])); ok {
			*d.dst = recipe.IntPtr(v)
			set(d.field, true)
		}
	}

	c.ImageURL = recipe.ResolveURL(pageURL, image(node["image"]))
	set(recipe.FieldImage, c.ImageURL != "")

	if n := nutrition(node["nutrition"]); n != nil {
		c.Nutrition = n
		set(recipe.FieldNutrition, true)
	}
	return c
}

// instructions 攤平字串、HowToStep、HowToSection
func instructions(v interface{}, depth int) []string {
	if depth > maxWalkDepth {
		return nil
	}
	switch t := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(t, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range t {
			out = append(out, instructions(item, depth+1)...)
		}
		return out
	case map[string]interface{}:
		if items, ok := t["itemListElement"]; ok {
			return instructions(items, depth+1)
		}
		if text := str(t["text"]); text != "" {
			return []string{text}
		}
		if name := str(t["name"]); name != "" {
			return []string{name}
		}
	}
	return nil
}

func servings(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return int(t), true
		}
	case string:
		return recipe.ParseServings(t)
	case []interface{}:
		for _, item := range t {
			if n, ok := servings(item); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func image(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		for _, item := range t {
			if s := image(item); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		if s := str(t["url"]); s != "" {
			return s
		}
		return str(t["contentUrl"])
	}
	return ""
}

// schema.org NutritionInformation 欄位對應
var nutritionKeys = map[string]string{
	"calories":            "calories",
	"proteinContent":      "protein",
	"carbohydrateContent": "carbs",
	"fatContent":          "fat",
	"fiberContent":        "fiber",
	"sugarContent":        "sugar",
	"sodiumContent":       "sodium",
	"cholesterolContent":  "cholesterol",
	"saturatedFatContent": "saturated_fat",
	"transFatContent":     "trans_fat",
}

func nutrition(v interface{}) *recipe.NutritionFacts {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	n := &recipe.NutritionFacts{Source: recipe.NutritionFromStructuredData, PerServing: true}
	for schemaKey, key := range nutritionKeys {
		if val, ok := recipe.ParseNutrient(str(m[schemaKey]), recipe.DefaultNutrientUnit(key)); ok {
			n.Set(key, val)
		}
	}
	if n.IsEmpty() {
		return nil
	}
	return n
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%g", t)
	case []interface{}:
		if len(t) > 0 {
			return str(t[0])
		}
	}
	return ""
}

func strs(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
