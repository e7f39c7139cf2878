package generic

import "strings"

// 分類與區塊標題，整行完全相同才略過
var categoryLabels = map[string]bool{
	"ingredients": true, "ingredient": true, "directions": true, "instructions": true, "method": true,
	"breakfast": true, "lunch": true, "dinner": true, "dessert": true, "desserts": true, "snacks": true,
	"appetizers": true, "side dishes": true, "main dishes": true, "healthy": true, "recipes": true,
	"vegetarian": true, "vegan": true, "gluten-free": true, "dairy-free": true, "low-carb": true,
	"keto": true, "paleo": true, "chicken": true, "beef": true, "pork": true, "seafood": true,
	"categories": true, "tags": true, "cuisine": true, "difficulty": true, "nutrition": true,
	"notes": true, "equipment": true, "video": true, "home": true, "about": true, "contact": true,
}

// 導覽與推薦區塊字樣，包含即略過
var navigationPhrases = []string{
	"select all", "deselect all", "see all", "view all", "show more", "load more", "read more",
	"jump to recipe", "print recipe", "pin recipe", "save recipe", "rate this", "add to shopping list",
	"submitted by", "recipe by", "author", "you may also like", "related recipes", "more recipes",
	"trending", "popular recipes", "sign up", "subscribe", "newsletter", "privacy policy",
	"terms of use", "cookie policy", "advertisement", "all rights reserved", "©",
}

// 替代建議，開頭相符即略過
var tipPrefixes = []string{"instead", "substitute", "optional", "tip:", "note:"}

// 步驟區塊中的非步驟字樣
var instructionSkipPhrases = []string{
	"submitted by", "recipe by", "reviews", "ratings", "stars", "votes", "calories",
	"prep time", "cook time", "total time", "skill level", "nutrition facts",
}

var actionWords = []string{
	"heat", "add", "mix", "stir", "cook", "bake", "fry", "boil", "simmer", "preheat", "place",
	"put", "combine", "blend", "whisk", "beat", "fold", "pour", "drain", "remove", "serve",
	"chop", "slice", "season", "roast", "grill", "saute", "sauté", "knead", "transfer", "let",
}

var imageSkipWords = []string{
	"placeholder", "icon", "logo", "avatar", "sprite", "pixel", "badge", "banner", "button",
	"spinner", "loading", "blank", "spacer", "gravatar", "emoji", "/ads/", "tracking",
}

func skipIngredient(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if categoryLabels[strings.TrimSuffix(lower, ":")] {
		return true
	}
	for _, p := range tipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return containsAny(lower, navigationPhrases)
}

func skipInstruction(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if categoryLabels[strings.TrimSuffix(lower, ":")] {
		return true
	}
	return containsAny(lower, navigationPhrases) || containsAny(lower, instructionSkipPhrases)
}

func hasActionWord(text string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ",.;:!()")
		for _, a := range actionWords {
			if w == a {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
