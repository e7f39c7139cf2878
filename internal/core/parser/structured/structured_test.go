package structured

import (
	"testing"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphPage = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebSite","name":"Site"}</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"Organization","name":"Kitchen"},
  {"@type":["Recipe","NewsArticle"],
   "name":"Classic Pancakes",
   "description":"Fluffy pancakes | Kitchen",
   "image":{"@type":"ImageObject","url":"/img/pancakes.jpg"},
   "recipeYield":["4","4 servings"],
   "prepTime":"PT10M","cookTime":"PT20M","totalTime":"PT30M",
   "recipeIngredient":["1 1/2 cups flour","2 eggs","1 cup milk - I used whole milk for extra richness"],
   "recipeInstructions":[
     {"@type":"HowToSection","name":"Batter","itemListElement":[
       {"@type":"HowToStep","text":"Whisk the flour, sugar and salt in a large bowl."},
       {"@type":"HowToStep","text":"Beat in the eggs and milk until the batter is smooth."}
     ]},
     {"@type":"HowToStep","text":"Cook ladlefuls on a hot greased griddle until golden."}
   ],
   "nutrition":{"@type":"NutritionInformation","calories":"320 calories","proteinContent":"9 g","sodiumContent":"450 mg"}
  }
]}
</script></head><body></body></html>`

func newPage(t *testing.T, html string) *parser.Page {
	t.Helper()
	page, err := parser.NewPage("https://example.com/recipes/pancakes", html)
	require.NoError(t, err)
	return page
}

func TestParse_JSONLDGraph(t *testing.T) {
	c, ok := NewParser(20).Parse(newPage(t, graphPage))
	require.True(t, ok)
	require.NotNil(t, c)

	assert.Equal(t, "Classic Pancakes", c.Title)
	assert.Equal(t, "Fluffy pancakes", c.Description)
	assert.Equal(t, []string{"1 1/2 cups flour", "2 eggs", "1 cup milk"}, c.Ingredients)
	assert.Len(t, c.Instructions, 3)
	assert.Equal(t, "https://example.com/img/pancakes.jpg", c.ImageURL)
	require.NotNil(t, c.Servings)
	assert.Equal(t, 4, *c.Servings)
	assert.Equal(t, 30, *c.TotalMinutes)

	require.NotNil(t, c.Nutrition)
	assert.Equal(t, 320.0, c.Nutrition.Calories.Value)
	assert.Equal(t, "kcal", c.Nutrition.Calories.Unit)
	assert.Equal(t, "mg", c.Nutrition.Sodium.Unit)
	assert.Equal(t, recipe.NutritionFromStructuredData, c.Nutrition.Source)
	assert.Equal(t, recipe.TierStructuredData, c.Provenance[recipe.FieldIngredients])
}

func TestParse_ShortStepsFailCriteriaButKeepPartial(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Recipe","name":"Toast",
	"recipeIngredient":["bread"],"recipeInstructions":"Toast it.\nButter it.\nEat."}</script>`

	p := NewParser(20)
	c, ok := p.Parse(newPage(t, html))
	assert.False(t, ok)
	require.NotNil(t, c)
	assert.Equal(t, []string{"bread"}, c.Ingredients)
	assert.Equal(t, []string{"Toast it.", "Butter it.", "Eat."}, c.Instructions)
	assert.ErrorIs(t, p.Criteria(c), recipe.ErrTierCriteria)
}

func TestParse_MalformedJSONIsSkipped(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Recipe", broken</script>`
	c, ok := NewParser(20).Parse(newPage(t, html))
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestParse_Microdata(t *testing.T) {
	html := `<div itemscope itemtype="http://schema.org/Recipe">
	<h1 itemprop="name">Tomato Soup</h1>
	<meta itemprop="recipeYield" content="6 servings">
	<meta itemprop="cookTime" content="PT45M">
	<img itemprop="image" src="/soup.jpg">
	<ul><li itemprop="recipeIngredient">4 tomatoes</li><li itemprop="recipeIngredient">1 onion</li></ul>
	<ol itemprop="recipeInstructions">
	  <li>Roast the tomatoes with olive oil until blistered.</li>
	  <li>Sweat the onion slowly in butter until soft.</li>
	  <li>Blend everything with stock until completely smooth.</li>
	</ol></div>`

	c, ok := NewParser(20).Parse(newPage(t, html))
	require.True(t, ok)
	assert.Equal(t, "Tomato Soup", c.Title)
	assert.Equal(t, []string{"4 tomatoes", "1 onion"}, c.Ingredients)
	assert.Len(t, c.Instructions, 3)
	assert.Equal(t, 6, *c.Servings)
	assert.Equal(t, 45, *c.CookMinutes)
	assert.Equal(t, "https://example.com/soup.jpg", c.ImageURL)
}

func TestParse_NoMarkup(t *testing.T) {
	c, ok := NewParser(0).Parse(newPage(t, `<html><body><h1>Hello</h1></body></html>`))
	assert.False(t, ok)
	assert.Nil(t, c)
}
