package nutrition

import (
	"testing"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kcal(v float64) *recipe.Nutrient { return &recipe.Nutrient{Value: v, Unit: "kcal"} }

func TestExtract_PerServingNormalization(t *testing.T) {
	e := NewExtractor(0)

	whole := &recipe.NutritionFacts{Calories: kcal(1800), Protein: &recipe.Nutrient{Value: 60, Unit: "g"}}
	got := e.Extract(nil, whole, recipe.IntPtr(4))
	require.NotNil(t, got)
	assert.Equal(t, 450.0, got.Calories.Value)
	assert.Equal(t, 15.0, got.Protein.Value)
	assert.True(t, got.PerServing)
	// 輸入不應被修改
	assert.Equal(t, 1800.0, whole.Calories.Value)

	already := &recipe.NutritionFacts{Calories: kcal(450)}
	got = e.Extract(nil, already, recipe.IntPtr(4))
	assert.Equal(t, 450.0, got.Calories.Value)

	// 再跑一次不會重複除
	again := e.Extract(nil, got, recipe.IntPtr(4))
	assert.Equal(t, 450.0, again.Calories.Value)
}

func TestExtract_HighCaloriesWithoutServings(t *testing.T) {
	got := NewExtractor(1000).Extract(nil, &recipe.NutritionFacts{Calories: kcal(2400)}, nil)
	require.NotNil(t, got)
	assert.Equal(t, 2400.0, got.Calories.Value)
	assert.False(t, got.PerServing)
}

func TestExtract_FieldLevelMergeWithHTMLSection(t *testing.T) {
	html := `<div class="nutrition-info">
	<span>Calories: 999</span><span>Protein: 12g</span><span>Total Fat 10g</span>
	<span>Saturated Fat 3g</span><span>Sodium 450mg</span></div>`
	page, err := parser.NewPage("https://example.com/r", html)
	require.NoError(t, err)

	structured := &recipe.NutritionFacts{
		Calories: kcal(320),
		Protein:  &recipe.Nutrient{Value: 0, Unit: "g"},
		Source:   recipe.NutritionFromStructuredData,
	}
	got := NewExtractor(0).Extract(page, structured, recipe.IntPtr(2))
	require.NotNil(t, got)

	assert.Equal(t, 320.0, got.Calories.Value)
	assert.Equal(t, 12.0, got.Protein.Value)
	assert.Equal(t, 10.0, got.Fat.Value)
	assert.Equal(t, 450.0, got.Sodium.Value)
	assert.Equal(t, "mg", got.Sodium.Unit)
	assert.Equal(t, 3.0, got.Micros["saturated_fat"].Value)
	assert.Equal(t, recipe.NutritionMerged, got.Source)
}

func TestExtract_NoNutrition(t *testing.T) {
	page, err := parser.NewPage("https://example.com/r", `<p>No facts here</p>`)
	require.NoError(t, err)
	assert.Nil(t, NewExtractor(0).Extract(page, nil, nil))
}

func TestParseText_NumberFirst(t *testing.T) {
	n := ParseText("320 calories 12g protein 40g carbs 5g fiber")
	require.NotNil(t, n)
	assert.Equal(t, 320.0, n.Calories.Value)
	assert.Equal(t, 12.0, n.Protein.Value)
	assert.Equal(t, 40.0, n.Carbs.Value)
	assert.Equal(t, 5.0, n.Fiber.Value)
}

func TestExtract_ThousandsSeparatorInHTMLSection(t *testing.T) {
	html := `<div class="nutrition-info"><span>Calories: 1,800</span><span>Total Fat 2,4 g</span></div>`
	page, err := parser.NewPage("https://example.com/r", html)
	require.NoError(t, err)

	got := NewExtractor(0).Extract(page, nil, recipe.IntPtr(4))
	require.NotNil(t, got)
	assert.Equal(t, 450.0, got.Calories.Value)
	assert.Equal(t, 0.6, got.Fat.Value)
	assert.True(t, got.PerServing)
}
