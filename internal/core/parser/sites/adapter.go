package sites

import (
	"regexp"
	"strings"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"

	"github.com/PuerkitoBio/goquery"
)

var copyrightPattern = regexp.MustCompile(`(?i)(©|\(c\)|copyright)\s*\d{4}.*$`)

// adapter 以選擇器描述的站點擷取器
type adapter struct {
	name         string
	title        []string
	ingredients  []string
	instructions []string
	servings     []string
	prepTime     []string
	cookTime     []string
	totalTime    []string
	// 需略過的固定字樣（小寫，完全比對）
	boilerplate []string
	// 額外的步驟清理
	cleanStep func(string) string
}

// Name 擷取器名稱
func (a *adapter) Name() string { return a.name }

func (a *adapter) Parse(page *parser.Page) (*recipe.Candidate, bool) {
	doc := page.Doc
	tier := recipe.TierSiteSpecific
	c := recipe.NewCandidate(page.URL)

	if c.Title = parser.FirstText(doc, a.title...); c.Title != "" {
		c.Provenance[recipe.FieldTitle] = tier
	}

	c.Ingredients = recipe.CleanList(a.filter(firstList(doc, a.ingredients)), recipe.CleanIngredient, 2)
	if len(c.Ingredients) > 0 {
		c.Provenance[recipe.FieldIngredients] = tier
	}

	steps := a.filter(firstList(doc, a.instructions))
	clean := recipe.CleanInstruction
	if a.cleanStep != nil {
		clean = func(s string) string { return a.cleanStep(recipe.CleanInstruction(s)) }
	}
	c.Instructions = recipe.CleanList(steps, clean, 5)
	if len(c.Instructions) > 0 {
		c.Provenance[recipe.FieldInstructions] = tier
	}

	if v, ok := recipe.ParseServings(parser.FirstText(doc, a.servings...)); ok {
		c.Servings = recipe.IntPtr(v)
		c.Provenance[recipe.FieldServings] = tier
	}
	for _, d := range []struct {
		sel   []string
		field recipe.Field
		dst   **int
	}{
		{a.prepTime, recipe.FieldPrepTime, &c.PrepMinutes},
		{a.cookTime, recipe.FieldCookTime, &c.CookMinutes},
		{a.totalTime, recipe.FieldTotalTime, &c.TotalMinutes},
	} {
		if v, ok := recipe.ParseMinutes(parser.FirstText(doc, d.sel...)); ok {
			*d.dst = recipe.IntPtr(v)
			c.Provenance[d.field] = tier
		}
	}

	if img := recipe.ResolveURL(page.URL, parser.Meta(doc, "og:image")); img != "" {
		c.ImageURL = img
		c.Provenance[recipe.FieldImage] = tier
	}
	if d := recipe.CleanDescription(parser.Meta(doc, "og:description", "description")); d != "" {
		c.Description = d
		c.Provenance[recipe.FieldDescription] = tier
	}

	return c, len(c.Ingredients) >= MinIngredients
}

func (a *adapter) filter(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		lower := strings.ToLower(strings.TrimSpace(item))
		if lower == "" || a.isBoilerplate(lower) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (a *adapter) isBoilerplate(lower string) bool {
	for _, b := range a.boilerplate {
		if lower == b {
			return true
		}
	}
	return false
}

// firstList 回傳第一個有結果的選擇器的所有文字
func firstList(doc *goquery.Document, selectors []string) []string {
	for _, sel := range selectors {
		if items := parser.Texts(doc.Find(sel)); len(items) > 0 {
			return items
		}
	}
	return nil
}

func stripCopyright(s string) string {
	return strings.TrimSpace(copyrightPattern.ReplaceAllString(s, ""))
}
