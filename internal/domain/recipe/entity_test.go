package recipe

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite covers the user recipe entity and its partial updates
type RecipeTestSuite struct {
	suite.Suite
	owner int64
}

func (suite *RecipeTestSuite) SetupTest() {
	suite.owner = 7
}

func (suite *RecipeTestSuite) newRecipe() *UserRecipe {
	return &UserRecipe{
		Name:         "Pasta carbonara",
		Descriptions: "Krämig pasta",
		Ingredients:  "400 g spaghetti | 150 g bacon | 3 ägg",
		Instructions: "Koka pastan.",
		Servings:     4,
		UserID:       &suite.owner,
	}
}

func (suite *RecipeTestSuite) TestValidate() {
	suite.Run("ValidRecipe", func() {
		assert.NoError(suite.T(), suite.newRecipe().Validate())
	})

	suite.Run("BlankName", func() {
		r := suite.newRecipe()
		r.Name = "   "
		assert.ErrorIs(suite.T(), r.Validate(), ErrNameRequired)
	})

	suite.Run("NameAtLimit", func() {
		r := suite.newRecipe()
		r.Name = strings.Repeat("a", MaxNameLength)
		assert.NoError(suite.T(), r.Validate())
	})

	suite.Run("NameTooLong", func() {
		r := suite.newRecipe()
		r.Name = strings.Repeat("a", MaxNameLength+1)
		assert.ErrorIs(suite.T(), r.Validate(), ErrNameTooLong)
	})

	suite.Run("ZeroServings", func() {
		r := suite.newRecipe()
		r.Servings = 0
		assert.ErrorIs(suite.T(), r.Validate(), ErrInvalidServings)
	})
}

func (suite *RecipeTestSuite) TestOwnedBy() {
	r := suite.newRecipe()
	assert.True(suite.T(), r.OwnedBy(suite.owner))
	assert.False(suite.T(), r.OwnedBy(suite.owner+1))

	r.UserID = nil
	assert.False(suite.T(), r.OwnedBy(suite.owner))
}

func (suite *RecipeTestSuite) TestPatchApply() {
	suite.Run("OnlySetFieldsChange", func() {
		r := suite.newRecipe()
		name := "Carbonara utan grädde"
		servings := 2

		require.NoError(suite.T(), UserRecipePatch{Name: &name, Servings: &servings}.Apply(r))

		assert.Equal(suite.T(), name, r.Name)
		assert.Equal(suite.T(), 2, r.Servings)
		assert.Equal(suite.T(), "Krämig pasta", r.Descriptions)
		assert.Nil(suite.T(), r.Calories)
	})

	suite.Run("EmptyPatchKeepsRecipe", func() {
		r := suite.newRecipe()
		before := *r

		require.NoError(suite.T(), UserRecipePatch{}.Apply(r))
		assert.Equal(suite.T(), before, *r)
	})

	suite.Run("InvalidResultIsRejected", func() {
		r := suite.newRecipe()
		blank := ""
		assert.ErrorIs(suite.T(), UserRecipePatch{Name: &blank}.Apply(r), ErrNameRequired)
	})
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"poultry":    CategoryPoultry,
		"Fågel":      CategoryPoultry,
		"fish":       CategoryFish,
		" fisk ":     CategoryFish,
		"meat":       CategoryMeat,
		"vegetarian": CategoryVegetarian,
		"vegetarisk": CategoryVegetarian,
		"":           CategoryAny,
		"dessert":    CategoryAny,
	}
	for tag, want := range tests {
		assert.Equal(t, want, ParseCategory(tag), "tag %q", tag)
	}
}

func TestCategoryMatches(t *testing.T) {
	tests := []struct {
		name        string
		category    Category
		ingredients string
		want        bool
	}{
		{"poultry hit", CategoryPoultry, "500 g Kycklingfilé", true},
		{"poultry miss", CategoryPoultry, "500 g lax", false},
		{"fish hit", CategoryFish, "200 g räkor", true},
		{"meat substring", CategoryMeat, "fläskkarré", true},
		{"vegetarian clean", CategoryVegetarian, "linser | morot | lök", true},
		{"vegetarian rejects bacon", CategoryVegetarian, "pasta | bacon", false},
		{"vegetarian rejects fish", CategoryVegetarian, "tonfisk på burk", false},
		{"any matches everything", CategoryAny, "vad som helst", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Matches(tt.ingredients))
		})
	}
}

func TestVegetarianExcludesEveryCarnivorousKeyword(t *testing.T) {
	keywords := CategoryVegetarian.Keywords()
	assert.True(t, CategoryVegetarian.Excludes())
	assert.Len(t, keywords, len(poultryKeywords)+len(meatKeywords)+len(fishKeywords))
	for _, k := range fishKeywords {
		assert.Contains(t, keywords, k)
	}
}

func TestSearchQueryNormalize(t *testing.T) {
	q := SearchQuery{}
	require.NoError(t, q.Normalize())
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	q = SearchQuery{Page: 3, PageSize: 10}
	require.NoError(t, q.Normalize())
	assert.Equal(t, 30, q.Offset())

	q = SearchQuery{Page: -1}
	assert.ErrorIs(t, q.Normalize(), ErrInvalidPage)

	q = SearchQuery{PageSize: MaxPageSize + 1}
	assert.ErrorIs(t, q.Normalize(), ErrInvalidPageSize)

	q = SearchQuery{PageSize: -5}
	assert.ErrorIs(t, q.Normalize(), ErrInvalidPageSize)
}

func TestSearchQueryNormalize_HugePageDoesNotOverflow(t *testing.T) {
	q := SearchQuery{Page: math.MaxInt / 10, PageSize: MaxPageSize}

	require.NoError(t, q.Normalize())

	assert.Positive(t, q.Offset())
	assert.LessOrEqual(t, q.Offset(), math.MaxInt32)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"ägg", "mjölk"}, SplitList(" ägg, ,mjölk ,"))
	assert.Equal(t, []string{"lax"}, SearchQuery{Ingredients: "lax"}.IngredientTokens())
}
