package video

import (
	"regexp"
	"strings"

	"recipe-extractor/internal/core/recipe"
)

// 描述解析成功門檻
const (
	MinDescriptionIngredients  = 2
	MinDescriptionInstructions = 2
)

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionInstructions
)

var (
	ingredientHeader  = regexp.MustCompile(`(?i)^[^\w]*(ingredients?|what you(?:'|’)?ll need|you will need|shopping list|for the [a-z ]+)\s*[:\-–]?\s*[^\w]*$`)
	instructionHeader = regexp.MustCompile(`(?i)^[^\w]*(instructions?|method|directions?|steps|how to make(?: it)?|preparation|recipe steps)\s*[:\-–]?\s*[^\w]*$`)
	// 描述中常見的結尾區塊
	stopLine = regexp.MustCompile(`(?i)^[^\w]*(follow|subscribe|music|chapters|timestamps|connect with|shop|links?|affiliate|sponsored|instagram|tiktok|facebook|website|equipment|gear|products?)\b`)

	numberedLine   = regexp.MustCompile(`^\s*(?:step\s*)?\d+\s*[.):\-]\s*\S`)
	bulletLine     = regexp.MustCompile(`^\s*[•·▪▫◦●○■□✓✔*\-–—]\s*\S`)
	timestampLine  = regexp.MustCompile(`^\s*\d{1,2}:\d{2}`)
	urlPattern     = regexp.MustCompile(`(?i)https?://\S+`)
	quantityLine   = regexp.MustCompile(`(?i)^\s*[•·▪*\-–—]?\s*(?:(?:\d+(?:[./]\d+)?|½|¼|¾|⅓|⅔|a\s+(?:pinch|handful|dash))\s*(?:cups?|tbsps?|tablespoons?|tsps?|teaspoons?|g|grams?|kg|ml|l|oz|ounces?|lbs?|pounds?|cloves?|pinch|cans?|slices?|large|medium|small|whole|sticks?|bunch)\b|\d+(?:[./]\d+)?\s+[a-z])`)
	servingsInText = regexp.MustCompile(`(?i)\b(?:serves|servings?|yield|makes)\s*:?\s*(\d+)`)
)

// ParseDescription 以段落標記與編號清單解析影片描述，
// 同時找到至少兩項食材與兩個步驟才算成功
func ParseDescription(description string) (*recipe.Candidate, bool) {
	c := &recipe.Candidate{Provenance: map[recipe.Field]recipe.Tier{}}
	if strings.TrimSpace(description) == "" {
		return c, false
	}

	var ingredients, steps []string
	current := sectionNone
	sawHeader := false

	for _, raw := range strings.Split(strings.ReplaceAll(description, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case ingredientHeader.MatchString(line):
			current, sawHeader = sectionIngredients, true
			continue
		case instructionHeader.MatchString(line):
			current, sawHeader = sectionInstructions, true
			continue
		case stopLine.MatchString(line) && sawHeader:
			current = sectionNone
			continue
		}
		if skipDescriptionLine(line) {
			continue
		}

		switch current {
		case sectionIngredients:
			ingredients = append(ingredients, line)
		case sectionInstructions:
			steps = append(steps, line)
		default:
			// 沒有段落標題時依行首判斷
			if sawHeader {
				continue
			}
			switch {
			case numberedLine.MatchString(line) && !quantityLine.MatchString(line):
				steps = append(steps, line)
			case quantityLine.MatchString(line) || bulletLine.MatchString(line):
				ingredients = append(ingredients, line)
			}
		}
	}

	tier := recipe.TierDescriptionPattern
	c.Ingredients = recipe.CleanList(ingredients, recipe.CleanIngredient, 2)
	c.Instructions = recipe.CleanList(steps, recipe.CleanInstruction, 5)
	if len(c.Ingredients) > 0 {
		c.Provenance[recipe.FieldIngredients] = tier
	}
	if len(c.Instructions) > 0 {
		c.Provenance[recipe.FieldInstructions] = tier
	}
	if m := servingsInText.FindStringSubmatch(description); m != nil {
		if v, ok := recipe.ParseServings(m[1]); ok {
			c.Servings = recipe.IntPtr(v)
			c.Provenance[recipe.FieldServings] = tier
		}
	}
	ok := len(c.Ingredients) >= MinDescriptionIngredients && len(c.Instructions) >= MinDescriptionInstructions
	return c, ok
}

func skipDescriptionLine(line string) bool {
	if timestampLine.MatchString(line) {
		return true
	}
	stripped := strings.TrimSpace(urlPattern.ReplaceAllString(line, ""))
	if stripped == "" || stripped == ":" {
		return true
	}
	// 只有 hashtag 的行
	for _, w := range strings.Fields(stripped) {
		if !strings.HasPrefix(w, "#") {
			return false
		}
	}
	return true
}
