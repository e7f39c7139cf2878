package recipe

// NewCandidate 建立空的候選食譜
func NewCandidate(sourceURL string) *Candidate {
	return &Candidate{
		Ingredients:  []string{},
		Instructions: []string{},
		SourceURL:    sourceURL,
		SiteName:     SiteName(sourceURL),
		Provenance:   map[Field]Tier{},
	}
}

// HasIngredients 是否已有食材
func (c *Candidate) HasIngredients() bool {
	return c != nil && len(c.Ingredients) > 0
}

// HasInstructions 是否已有步驟
func (c *Candidate) HasInstructions() bool {
	return c != nil && len(c.Instructions) > 0
}

// IsEmpty 沒有任何食材或步驟
func (c *Candidate) IsEmpty() bool {
	return !c.HasIngredients() && !c.HasInstructions()
}

// MergeGap 以 other 填補 c 中空白的欄位，已有值的欄位永不覆寫。
// 回傳實際被填入的欄位。
func (c *Candidate) MergeGap(other *Candidate, tier Tier) []Field {
	if other == nil {
		return nil
	}
	if c.Provenance == nil {
		c.Provenance = map[Field]Tier{}
	}

	var filled []Field
	fill := func(f Field, empty, available bool, set func()) {
		if empty && available {
			set()
			c.Provenance[f] = tier
			filled = append(filled, f)
		}
	}

	fill(FieldTitle, c.Title == "", other.Title != "", func() { c.Title = other.Title })
	fill(FieldDescription, c.Description == "", other.Description != "", func() { c.Description = other.Description })
	fill(FieldIngredients, len(c.Ingredients) == 0, len(other.Ingredients) > 0, func() {
		c.Ingredients = append([]string(nil), other.Ingredients...)
	})
	fill(FieldInstructions, len(c.Instructions) == 0, len(other.Instructions) > 0, func() {
		c.Instructions = append([]string(nil), other.Instructions...)
	})
	fill(FieldServings, !positive(c.Servings), positive(other.Servings), func() { c.Servings = IntPtr(*other.Servings) })
	fill(FieldPrepTime, !positive(c.PrepMinutes), positive(other.PrepMinutes), func() { c.PrepMinutes = IntPtr(*other.PrepMinutes) })
	fill(FieldCookTime, !positive(c.CookMinutes), positive(other.CookMinutes), func() { c.CookMinutes = IntPtr(*other.CookMinutes) })
	fill(FieldTotalTime, !positive(c.TotalMinutes), positive(other.TotalMinutes), func() { c.TotalMinutes = IntPtr(*other.TotalMinutes) })
	fill(FieldImage, c.ImageURL == "", other.ImageURL != "", func() { c.ImageURL = other.ImageURL })
	fill(FieldNutrition, c.Nutrition == nil, other.Nutrition != nil, func() { c.Nutrition = other.Nutrition.Clone() })

	if tier.IsGenerated() && len(filled) > 0 {
		c.Generated = true
	}
	return filled
}

// Clone 深拷貝
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Ingredients = append([]string{}, c.Ingredients...)
	out.Instructions = append([]string{}, c.Instructions...)
	out.Servings = clonePtr(c.Servings)
	out.PrepMinutes = clonePtr(c.PrepMinutes)
	out.CookMinutes = clonePtr(c.CookMinutes)
	out.TotalMinutes = clonePtr(c.TotalMinutes)
	out.Nutrition = c.Nutrition.Clone()
	out.Provenance = make(map[Field]Tier, len(c.Provenance))
	for k, v := range c.Provenance {
		out.Provenance[k] = v
	}
	return &out
}

// Clone 深拷貝營養資訊
func (n *NutritionFacts) Clone() *NutritionFacts {
	if n == nil {
		return nil
	}
	out := *n
	for _, p := range []**Nutrient{&out.Calories, &out.Protein, &out.Carbs, &out.Fat, &out.Fiber, &out.Sugar, &out.Sodium} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	if n.Micros != nil {
		out.Micros = make(map[string]Nutrient, len(n.Micros))
		for k, v := range n.Micros {
			out.Micros[k] = v
		}
	}
	return &out
}

// IntPtr 回傳 int 指標
func IntPtr(v int) *int {
	return &v
}

func positive(p *int) bool {
	return p != nil && *p > 0
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
