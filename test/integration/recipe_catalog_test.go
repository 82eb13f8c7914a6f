//go:build integration

// Package integration runs the persistence layer against a real PostgreSQL container.
package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/domain/recipe"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/internal/infrastructure/persistence/postgres"
	"github.com/foodisave/backend/internal/ports/outbound"
	"github.com/foodisave/backend/test/testutils"
)

const catalogCSV = `Title,Ingredients,Time to cook,Energy,Protein,Carbohydrates,Fat,Image,Rating,Ratings count,Recipe URL
Kycklinggryta,"500 g kycklingfilé | 2 dl grädde | 1 gul lök",40 min,"520 kcal","38,5 g","12 g","30 g",https://img/1.jpg,4.5,120,https://example.se/1
Laxpasta,"400 g pasta | 300 g lax | citron",25 min,"610 kcal","32 g","70 g","20 g",https://img/2.jpg,4.1,80,https://example.se/2
Linsgryta,"3 dl röda linser | 1 burk tomat | morot",30 min,"380 kcal","18 g","55 g","6 g",,4.8,45,https://example.se/3
Pannkakor,"3 ägg | 6 dl mjölk | 2,5 dl vetemjöl | bacon",20 min,"450 kcal","16 g","48 g","19 g",,3.9,60,https://example.se/4
nan,"",,,,,,,,,
`

type RecipeCatalogSuite struct {
	suite.Suite
	ctx     context.Context
	pg      *testutils.TestDatabase
	recipes outbound.RecipeRepository
}

func TestRecipeCatalogSuite(t *testing.T) {
	suite.Run(t, new(RecipeCatalogSuite))
}

func (s *RecipeCatalogSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = testutils.SetupPostgres(s.T())

	parsed, stats, err := postgres.ParseRecipeCSV(strings.NewReader(catalogCSV))
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, stats.Skipped)

	importer, err := postgres.NewRecipeImporter(s.ctx, s.pg.URL, zaptest.NewLogger(s.T()))
	require.NoError(s.T(), err)
	defer importer.Close()

	copied, err := importer.Import(s.ctx, parsed)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(4), copied)

	s.recipes = gormrepo.NewRecipeRepository(s.pg.DB)
}

func (s *RecipeCatalogSuite) names(rs []*recipe.Recipe) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func (s *RecipeCatalogSuite) search(q recipe.SearchQuery) []*recipe.Recipe {
	require.NoError(s.T(), q.Normalize())
	found, err := s.recipes.Search(s.ctx, q)
	require.NoError(s.T(), err)
	return found
}

func (s *RecipeCatalogSuite) TestImportedNutritionIsNumeric() {
	found := s.search(recipe.SearchQuery{Query: "kycklinggryta"})
	require.Len(s.T(), found, 1)

	r := found[0]
	require.NotNil(s.T(), r.Protein)
	assert.InDelta(s.T(), 38.5, *r.Protein, 1e-9)
	require.NotNil(s.T(), r.Calories)
	assert.InDelta(s.T(), 520, *r.Calories, 1e-9)
	assert.Nil(s.T(), s.search(recipe.SearchQuery{Query: "linsgryta"})[0].Images)
}

func (s *RecipeCatalogSuite) TestSearchIsCaseInsensitive() {
	assert.Equal(s.T(), []string{"Laxpasta"}, s.names(s.search(recipe.SearchQuery{Query: "PASTA"})))
}

func (s *RecipeCatalogSuite) TestSearchCombinesFilters() {
	maxCal, minProtein := 600, 15
	found := s.search(recipe.SearchQuery{
		MaxCalories: &maxCal,
		MinProtein:  &minProtein,
		Ingredients: "lök, grädde",
	})
	assert.Equal(s.T(), []string{"Kycklinggryta"}, s.names(found))
}

func (s *RecipeCatalogSuite) TestSearchPages() {
	first := s.search(recipe.SearchQuery{PageSize: 3})
	second := s.search(recipe.SearchQuery{Page: 1, PageSize: 3})

	assert.Len(s.T(), first, 3)
	assert.Len(s.T(), second, 1)
	assert.NotContains(s.T(), s.names(first), second[0].Name)
}

func (s *RecipeCatalogSuite) TestSampleByCategory() {
	tests := []struct {
		category recipe.Category
		allowed  []string
	}{
		{recipe.CategoryPoultry, []string{"Kycklinggryta"}},
		{recipe.CategoryFish, []string{"Laxpasta"}},
		{recipe.CategoryVegetarian, []string{"Linsgryta"}},
		{recipe.CategoryAny, []string{"Kycklinggryta", "Laxpasta", "Linsgryta", "Pannkakor"}},
	}
	for _, tt := range tests {
		s.Run(string(tt.category), func() {
			drawn, err := s.recipes.Sample(s.ctx, tt.category, recipe.RandomSampleSize)
			require.NoError(s.T(), err)
			assert.Len(s.T(), drawn, recipe.RandomSampleSize)
			for _, name := range s.names(drawn) {
				assert.Contains(s.T(), tt.allowed, name)
			}
		})
	}
}
