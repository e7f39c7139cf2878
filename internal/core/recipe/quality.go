package recipe

import "math"

// 完整食譜門檻
const (
	FullRecipeMinIngredients  = 3
	FullRecipeMinInstructions = 3
)

// IsFull 食材與步驟皆達門檻
func (c *Candidate) IsFull() bool {
	return c != nil &&
		len(c.Ingredients) >= FullRecipeMinIngredients &&
		len(c.Instructions) >= FullRecipeMinInstructions
}

// QualityScore 依完整度計算 0..1 的品質分數
func QualityScore(c *Candidate) float64 {
	if c == nil {
		return 0
	}
	score := 0.0
	if c.Title != "" {
		score += 0.2
	}
	score += listScore(len(c.Ingredients))
	score += listScore(len(c.Instructions))
	if c.ImageURL != "" {
		score += 0.1
	}
	if positive(c.Servings) {
		score += 0.05
	}
	if positive(c.PrepMinutes) {
		score += 0.05
	}
	// 避免浮點誤差讓相同輸入產生不同輸出
	return math.Round(math.Min(score, 1.0)*100) / 100
}

func listScore(n int) float64 {
	switch {
	case n >= 3:
		return 0.3
	case n >= 1:
		return 0.15
	default:
		return 0
	}
}
