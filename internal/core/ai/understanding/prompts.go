package understanding

import (
	"fmt"
	"strings"
)

const systemPrompt = `You extract cooking recipes from text. You never invent quantities or steps that are not supported by the input unless explicitly asked to generate them. You answer with compact JSON only.`

const recipeSchema = `{"title":"string","ingredients":["quantity unit ingredient"],"instructions":["one step per item"],"servings":0,"prep_minutes":0,"cook_minutes":0}`

func extractPrompt(title, body, kind string) string {
	return fmt.Sprintf(`Extract the recipe contained in the following %s.
Title: %s

Rules:
1. Copy ingredients and steps as written; do not add anything that is not present
2. Each ingredient is one string including its quantity and unit
3. Each instruction is one complete step, without numbering
4. Use an empty array when the text has no ingredients or no steps
5. Use 0 for unknown numbers

Return JSON in exactly this shape:
%s

%s:
"""
%s
"""`, kind, title, recipeSchema, capitalize(kind), body)
}

func instructionsPrompt(title string, ingredients []string, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write clear cooking instructions for %q using these ingredients:\n", title)
	for _, ing := range ingredients {
		b.WriteString("- ")
		b.WriteString(ing)
		b.WriteString("\n")
	}
	if context != "" {
		b.WriteString("\nFollow what the cook says in this transcript where possible:\n\"\"\"\n")
		b.WriteString(context)
		b.WriteString("\n\"\"\"\n")
	}
	b.WriteString("\nRules:\n1. Between 3 and 12 steps\n2. Only use the listed ingredients\n3. No numbering inside the strings\n\n")
	b.WriteString(`Return JSON in exactly this shape: {"instructions":["step"]}`)
	return b.String()
}

func generatePrompt(title string) string {
	return fmt.Sprintf(`Create a plausible home-cooking recipe for the dish titled %q.

Rules:
1. Between 4 and 15 ingredients, each with quantity and unit
2. Between 3 and 10 instructions
3. Servings and times are realistic integers

Return JSON in exactly this shape:
%s`, title, recipeSchema)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
