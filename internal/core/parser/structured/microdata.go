package structured

import (
	"strings"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"

	"github.com/PuerkitoBio/goquery"
)

// fromMicrodata 解析 itemtype="schema.org/Recipe" 的 microdata
func fromMicrodata(doc *goquery.Document, pageURL string) *recipe.Candidate {
	scope := doc.Find(`[itemtype*="schema.org/Recipe"]`).First()
	if scope.Length() == 0 {
		return nil
	}

	c := recipe.NewCandidate(pageURL)
	tier := recipe.TierStructuredData

	c.Title = itemprop(scope, "name")
	if c.Title != "" {
		c.Provenance[recipe.FieldTitle] = tier
	}
	c.Description = recipe.CleanDescription(itemprop(scope, "description"))

	var rawIngredients []string
	scope.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"]`).Each(func(_ int, s *goquery.Selection) {
		rawIngredients = append(rawIngredients, s.Text())
	})
	c.Ingredients = recipe.CleanList(rawIngredients, recipe.CleanIngredient, 1)
	if len(c.Ingredients) > 0 {
		c.Provenance[recipe.FieldIngredients] = tier
	}

	var rawSteps []string
	scope.Find(`[itemprop="recipeInstructions"]`).Each(func(_ int, s *goquery.Selection) {
		items := s.Find("li")
		if items.Length() == 0 {
			items = s.Find(`[itemprop="text"], p`)
		}
		if items.Length() > 0 {
			rawSteps = append(rawSteps, parser.Texts(items)...)
			return
		}
		for _, line := range strings.Split(s.Text(), "\n") {
			rawSteps = append(rawSteps, line)
		}
	})
	c.Instructions = recipe.CleanList(rawSteps, recipe.CleanInstruction, 1)
	if len(c.Instructions) > 0 {
		c.Provenance[recipe.FieldInstructions] = tier
	}

	if v, ok := recipe.ParseServings(itemprop(scope, "recipeYield")); ok {
		c.Servings = recipe.IntPtr(v)
		c.Provenance[recipe.FieldServings] = tier
	}
	if v, ok := recipe.ParseMinutes(itemprop(scope, "prepTime")); ok {
		c.PrepMinutes = recipe.IntPtr(v)
		c.Provenance[recipe.FieldPrepTime] = tier
	}
	if v, ok := recipe.ParseMinutes(itemprop(scope, "cookTime")); ok {
		c.CookMinutes = recipe.IntPtr(v)
		c.Provenance[recipe.FieldCookTime] = tier
	}
	if v, ok := recipe.ParseMinutes(itemprop(scope, "totalTime")); ok {
		c.TotalMinutes = recipe.IntPtr(v)
		c.Provenance[recipe.FieldTotalTime] = tier
	}

	img := scope.Find(`[itemprop="image"]`).First()
	src := parser.ImageSource(img)
	if src == "" {
		src, _ = img.Attr("content")
	}
	if c.ImageURL = recipe.ResolveURL(pageURL, src); c.ImageURL != "" {
		c.Provenance[recipe.FieldImage] = tier
	}
	return c
}

// itemprop 讀取屬性值（content / datetime）或文字
func itemprop(scope *goquery.Selection, name string) string {
	s := scope.Find(`[itemprop="` + name + `"]`).First()
	if s.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"content", "datetime"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return recipe.CleanText(v)
		}
	}
	return parser.Text(s)
}
