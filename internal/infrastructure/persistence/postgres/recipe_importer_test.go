package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanNutrient(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{name: "grams with comma", in: "12,5 g", want: ptr(12.5)},
		{name: "kcal", in: "450 kcal", want: ptr(450)},
		{name: "upper case unit", in: "3G", want: ptr(3)},
		{name: "empty", in: "", want: nil},
		{name: "nan", in: "nan", want: nil},
		{name: "garbage", in: "okänt", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanNutrient(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestParseRecipeCSV(t *testing.T) {
	input := strings.Join([]string{
		"Title,Ingredients,Time to cook,Energy,Protein,Carbohydrates,Fat,Image,Rating,Ratings count,Recipe URL",
		`Pannkakor,"mjölk, ägg, vetemjöl",30 min,320 kcal,"11,5 g",40 g,9 g,https://img/p.jpg,4.5,120,https://ica.se/p`,
		"nan,,,,,,,,,,",
		`Soppa,"morot, lök",,,,,,,,,`,
	}, "\n")

	recipes, stats, err := ParseRecipeCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, recipes, 2)

	first := recipes[0]
	assert.Equal(t, "Pannkakor", first.Name)
	assert.Equal(t, "mjölk, ägg, vetemjöl", first.Ingredients)
	require.NotNil(t, first.Calories)
	assert.InDelta(t, 320, *first.Calories, 0.0001)
	require.NotNil(t, first.Protein)
	assert.InDelta(t, 11.5, *first.Protein, 0.0001)
	require.NotNil(t, first.RecipeURL)
	assert.Equal(t, "https://ica.se/p", *first.RecipeURL)

	second := recipes[1]
	assert.Nil(t, second.Calories)
	assert.Nil(t, second.CookTime)
}

func TestParseRecipeCSV_MissingColumn(t *testing.T) {
	_, _, err := ParseRecipeCSV(strings.NewReader("Name,Other\nx,y\n"))
	assert.Error(t, err)
}

func ptr(f float64) *float64 { return &f }
