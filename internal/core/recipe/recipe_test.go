package recipe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeGap_EarlierTierWins(t *testing.T) {
	c := NewCandidate("https://example.com/r")
	c.MergeGap(&Candidate{Ingredients: []string{"a"}}, TierStructuredData)

	filled := c.MergeGap(&Candidate{
		Ingredients:  []string{"b", "c"},
		Instructions: []string{"Mix everything together"},
		Title:        "Later title",
	}, TierGeneric)

	assert.Equal(t, []string{"a"}, c.Ingredients)
	assert.Equal(t, []string{"Mix everything together"}, c.Instructions)
	assert.Equal(t, "Later title", c.Title)
	assert.ElementsMatch(t, []Field{FieldInstructions, FieldTitle}, filled)
	assert.Equal(t, TierStructuredData, c.Provenance[FieldIngredients])
	assert.Equal(t, TierGeneric, c.Provenance[FieldInstructions])
}

func TestMergeGap_ZeroNumericIsGap(t *testing.T) {
	c := NewCandidate("https://example.com/r")
	c.Servings = IntPtr(0)
	c.MergeGap(&Candidate{Servings: IntPtr(4), PrepMinutes: IntPtr(10)}, TierGeneric)

	require.NotNil(t, c.Servings)
	assert.Equal(t, 4, *c.Servings)
	assert.Equal(t, 10, *c.PrepMinutes)
}

func TestMergeGap_DoesNotAliasSource(t *testing.T) {
	src := &Candidate{Ingredients: []string{"x"}, Servings: IntPtr(2)}
	c := NewCandidate("")
	c.MergeGap(src, TierGeneric)

	src.Ingredients[0] = "changed"
	*src.Servings = 9
	assert.Equal(t, "x", c.Ingredients[0])
	assert.Equal(t, 2, *c.Servings)
}

func TestMergeGap_GeneratedTierMarksCandidate(t *testing.T) {
	c := NewCandidate("")
	c.MergeGap(&Candidate{Title: "Noodles"}, TierVideoMetadata)
	assert.False(t, c.Generated)

	c.MergeGap(&Candidate{Ingredients: []string{"noodles"}}, TierAITitleGeneration)
	assert.True(t, c.Generated)
}

func TestCleanIngredient(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2 cups flour", "2 cups flour"},
		{"1 cup sugar - I used brown sugar for a deeper flavor", "1 cup sugar"},
		{"1 tsp salt – or to taste", "1 tsp salt"},
		{"For the sauce: 2 tbsp soy sauce", "2 tbsp soy sauce"},
		{"▢ 3 cloves garlic", "3 cloves garlic"},
		{"1 &amp; 1/2 cups milk", "1 & 1/2 cups milk"},
		{"Salt-and-pepper", "Salt-and-pepper"},
		{"2 eggs - beaten", "2 eggs - beaten"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanIngredient(tt.in))
		})
	}
}

func TestCleanInstruction(t *testing.T) {
	assert.Equal(t, "Preheat the oven.", CleanInstruction("Step 1: Preheat the oven."))
	assert.Equal(t, "Mix well.", CleanInstruction("2. Mix well."))
	assert.Equal(t, "Stir.", CleanInstruction("• Stir."))
	assert.Equal(t, "1.5 hours later, serve.", CleanInstruction("1.5 hours later, serve."))
}

func TestCleanList_DedupesAndDropsShort(t *testing.T) {
	got := CleanList([]string{"1. Mix", "Fold in the flour gently", "fold in the flour gently", ""}, CleanInstruction, 10)
	assert.Equal(t, []string{"Fold in the flour gently"}, got)
}

func TestParseDurations(t *testing.T) {
	v, ok := ParseISODuration("PT1H30M")
	require.True(t, ok)
	assert.Equal(t, 90, v)

	_, ok = ParseISODuration("PT")
	assert.False(t, ok)

	v, ok = ParseMinutes("1 hr 15 mins")
	require.True(t, ok)
	assert.Equal(t, 75, v)

	v, ok = ParseMinutes("Prep: 20 minutes")
	require.True(t, ok)
	assert.Equal(t, 20, v)

	v, ok = ParseServings("Serves 4-6")
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestQualityScore(t *testing.T) {
	c := &Candidate{
		Title:        "Pancakes",
		Ingredients:  []string{"a", "b", "c"},
		Instructions: []string{"x"},
		ImageURL:     "https://img",
		Servings:     IntPtr(2),
	}
	assert.Equal(t, 0.8, QualityScore(c))
	assert.False(t, c.IsFull())
	assert.Equal(t, 0.0, QualityScore(nil))
}

func TestParseSource(t *testing.T) {
	u, err := ParseSource("www.allrecipes.com/recipe/1")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)

	for _, bad := range []string{"", "ftp://example.com/x", "not a url", "https://"} {
		_, err := ParseSource(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestSiteNameAndHost(t *testing.T) {
	assert.Equal(t, "allrecipes.com", SiteName("https://www.allrecipes.com/recipe/1"))
	assert.Equal(t, "youtube.com", NormalizeHost("M.YouTube.com"))
	assert.Equal(t, "https://example.com/img/a.jpg", ResolveURL("https://example.com/r/1", "/img/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", ResolveURL("https://example.com", "//cdn.example.com/a.jpg"))
	assert.Empty(t, ResolveURL("https://example.com", "data:image/png;base64,xx"))
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, FailureTimeout, FailureKind(fmt.Errorf("ai: %w", context.DeadlineExceeded)))
	assert.Equal(t, FailureMalformed, FailureKind(fmt.Errorf("%w: bad", ErrMalformedResponse)))
	assert.Equal(t, FailureError, FailureKind(errors.New("other")))

	f := NewTierFailure(TierAIDescription, fmt.Errorf("%w: x", ErrTierCriteria))
	assert.Equal(t, TierAIDescription, f.Tier)
	assert.Equal(t, FailureCriteria, f.Kind)
}

func TestConfidenceDowngrade(t *testing.T) {
	assert.Equal(t, ConfidenceMedium, ConfidenceHigh.Downgrade())
	assert.Equal(t, ConfidenceLow, ConfidenceMedium.Downgrade())
	assert.Equal(t, ConfidenceLow, ConfidenceLow.Downgrade())
}

func TestParseNutrient_DecimalAndThousandsCommas(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
	}{
		{"1,800 calories", 1800, "kcal"},
		{"12,500.5 mg", 12500.5, "mg"},
		{"2,5 g", 2.5, "g"},
		{"320 kcal", 320, "kcal"},
		{"450mg", 450, "mg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := ParseNutrient(tt.in, "g")
			require.True(t, ok)
			assert.Equal(t, tt.value, n.Value)
			assert.Equal(t, tt.unit, n.Unit)
		})
	}
}
