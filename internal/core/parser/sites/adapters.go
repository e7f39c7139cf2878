package sites

var commonBoilerplate = []string{
	"select all", "deselect all", "add to shopping list", "print", "save", "jump to recipe",
	"original recipe yields", "ingredient checklist",
}

func allRecipes() *adapter {
	return &adapter{
		name:  "allrecipes",
		title: []string{"h1.article-heading", "h1#article-heading_1-0", "h1"},
		ingredients: []string{
			".mm-recipes-structured-ingredients__list-item",
			`ul.mntl-structured-ingredients__list li`,
			`[data-ingredient-name]`,
			".ingredients-item-name",
		},
		instructions: []string{
			".mm-recipes-steps__content li p",
			"#mntl-sc-block_2-0 li p",
			".recipe__steps-content li p",
			".instructions-section-item .paragraph",
		},
		servings:    []string{`.mm-recipes-details__item:contains("Servings") .mm-recipes-details__value`, `.recipe-meta-item:contains("Servings") .recipe-meta-item-body`},
		prepTime:    []string{`.mm-recipes-details__item:contains("Prep") .mm-recipes-details__value`},
		cookTime:    []string{`.mm-recipes-details__item:contains("Cook") .mm-recipes-details__value`},
		totalTime:   []string{`.mm-recipes-details__item:contains("Total") .mm-recipes-details__value`},
		boilerplate: commonBoilerplate,
	}
}

func foodNetwork() *adapter {
	return &adapter{
		name:  "foodnetwork",
		title: []string{"h1.o-AssetTitle__a-Headline", "span.o-AssetTitle__a-HeadlineText", "h1"},
		ingredients: []string{
			".o-Ingredients__a-Ingredient--CheckboxLabel",
			".o-Ingredients__a-Ingredient",
			".o-Ingredients__m-Body p",
		},
		instructions: []string{
			".o-Method__m-Step",
			".o-Method__m-Body li",
			".o-Method__m-Body p",
		},
		servings:    []string{".o-RecipeInfo__m-Yield .o-RecipeInfo__a-Description"},
		totalTime:   []string{".o-RecipeInfo__m-Time .m-RecipeInfo__a-Description--Total", ".o-RecipeInfo__a-Description--Total"},
		boilerplate: commonBoilerplate,
		cleanStep:   stripCopyright,
	}
}

func bbcGoodFood() *adapter {
	return &adapter{
		name:  "bbcgoodfood",
		title: []string{"h1.heading-1", ".post-header__title h1", "h1"},
		ingredients: []string{
			".recipe__ingredients li",
			"section.recipe__ingredients li",
			`[class*="ingredients-list"] li`,
		},
		instructions: []string{
			".recipe__method-steps li",
			".method-steps__list-item",
			`[class*="method-steps"] li`,
		},
		servings:    []string{`.recipe-cook-and-prep-details__item:contains("Serves")`, ".post-header__servings"},
		prepTime:    []string{".recipe-cook-and-prep-details__item time[datetime]:first-of-type"},
		boilerplate: commonBoilerplate,
	}
}
