package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nutrientPattern = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:[.,]\d+)?)\s*(kcal|cal(?:ories)?|mg|mcg|µg|g|grams?|milligrams?|iu|%)?`)
	// "1,800"、"12,500.5" 的逗號為千分位
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// 營養素鍵值與預設單位
var nutrientUnits = map[string]string{
	"calories": "kcal",
	"protein":  "g",
	"carbs":    "g",
	"fat":      "g",
	"fiber":    "g",
	"sugar":    "g",
	"sodium":   "mg",

	"saturated_fat": "g",
	"trans_fat":     "g",
}

// ParseNutrient 解析 "320 calories"、"12 g"、"450mg" 等數值
func ParseNutrient(s, defaultUnit string) (*Nutrient, bool) {
	m := nutrientPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, false
	}
	v, err := parseDecimal(m[1])
	if err != nil {
		return nil, false
	}
	unit := strings.ToLower(m[2])
	switch {
	case unit == "":
		unit = defaultUnit
	case strings.HasPrefix(unit, "cal"), unit == "kcal":
		unit = "kcal"
	case strings.HasPrefix(unit, "gram"):
		unit = "g"
	case strings.HasPrefix(unit, "milligram"):
		unit = "mg"
	case unit == "µg":
		unit = "mcg"
	}
	return &Nutrient{Value: v, Unit: unit}, true
}

// parseDecimal 千分位逗號直接移除，其餘逗號視為小數點（"2,5"）
func parseDecimal(s string) (float64, error) {
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

// DefaultNutrientUnit 主要營養素的預設單位
func DefaultNutrientUnit(key string) string {
	if u, ok := nutrientUnits[key]; ok {
		return u
	}
	return "mg"
}

// Get 依鍵取得主要營養素
func (n *NutritionFacts) Get(key string) *Nutrient {
	if p := n.slot(key); p != nil {
		return *p
	}
	return nil
}

// Set 依鍵設定營養素，非主要營養素存入 Micros
func (n *NutritionFacts) Set(key string, v *Nutrient) {
	if v == nil {
		return
	}
	if p := n.slot(key); p != nil {
		*p = v
		return
	}
	if n.Micros == nil {
		n.Micros = map[string]Nutrient{}
	}
	n.Micros[key] = *v
}

func (n *NutritionFacts) slot(key string) **Nutrient {
	switch key {
	case "calories":
		return &n.Calories
	case "protein":
		return &n.Protein
	case "carbs":
		return &n.Carbs
	case "fat":
		return &n.Fat
	case "fiber":
		return &n.Fiber
	case "sugar":
		return &n.Sugar
	case "sodium":
		return &n.Sodium
	}
	return nil
}

// MacroKeys 主要營養素鍵值
func MacroKeys() []string {
	return []string{"calories", "protein", "carbs", "fat", "fiber", "sugar", "sodium"}
}

// IsEmpty 沒有任何營養數值
func (n *NutritionFacts) IsEmpty() bool {
	if n == nil {
		return true
	}
	for _, k := range MacroKeys() {
		if v := n.Get(k); v != nil && v.Value > 0 {
			return false
		}
	}
	return len(n.Micros) == 0
}

// MergeGap 以 other 填補缺少或為零的欄位，回傳是否有填入
func (n *NutritionFacts) MergeGap(other *NutritionFacts) bool {
	if other == nil {
		return false
	}
	filled := false
	for _, k := range MacroKeys() {
		cur := n.Get(k)
		alt := other.Get(k)
		if (cur == nil || cur.Value == 0) && alt != nil && alt.Value > 0 {
			v := *alt
			n.Set(k, &v)
			filled = true
		}
	}
	for k, v := range other.Micros {
		if cur, ok := n.Micros[k]; (!ok || cur.Value == 0) && v.Value > 0 {
			n.Set(k, &Nutrient{Value: v.Value, Unit: v.Unit})
			filled = true
		}
	}
	return filled
}

// Scale 將所有數值除以 divisor，保留兩位小數
func (n *NutritionFacts) Scale(divisor float64) {
	if divisor <= 0 {
		return
	}
	div := func(v float64) float64 { return math.Round(v/divisor*100) / 100 }
	for _, k := range MacroKeys() {
		if p := n.Get(k); p != nil {
			p.Value = div(p.Value)
		}
	}
	for k, v := range n.Micros {
		v.Value = div(v.Value)
		n.Micros[k] = v
	}
}
