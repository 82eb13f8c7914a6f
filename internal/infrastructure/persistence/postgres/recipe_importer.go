package postgres

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/recipe"
)

// Catalog CSV headers.
const (
	colTitle        = "Title"
	colIngredients  = "Ingredients"
	colCookTime     = "Time to cook"
	colEnergy       = "Energy"
	colProtein      = "Protein"
	colCarbs        = "Carbohydrates"
	colFat          = "Fat"
	colImage        = "Image"
	colRating       = "Rating"
	colRatingsCount = "Ratings count"
	colRecipeURL    = "Recipe URL"
)

var recipeColumns = []string{
	"name", "ingredients", "cook_time", "calories", "protein", "carbohydrates",
	"fat", "images", "rating", "ratings_count", "recipe_url",
}

// ImportStats summarises one CSV run.
type ImportStats struct {
	Rows     int
	Skipped  int
	Inserted int64
}

// ParseRecipeCSV reads the catalog export. Nutrition cells lose their unit suffixes and use
// a dot as decimal separator; cells that still do not parse become NULL. Rows named "nan"
// or without a name are skipped.
func ParseRecipeCSV(r io.Reader) ([]*recipe.Recipe, ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{colTitle, colIngredients} {
		if _, ok := index[required]; !ok {
			return nil, stats, fmt.Errorf("missing column %q", required)
		}
	}

	var out []*recipe.Recipe
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := cell(colTitle)
		if name == "" || strings.EqualFold(name, "nan") {
			stats.Skipped++
			continue
		}
		if runes := []rune(name); len(runes) > recipe.MaxNameLength {
			name = string(runes[:recipe.MaxNameLength])
		}

		out = append(out, &recipe.Recipe{
			Name:          name,
			Ingredients:   cell(colIngredients),
			CookTime:      optionalText(cell(colCookTime)),
			Calories:      CleanNutrient(cell(colEnergy)),
			Protein:       CleanNutrient(cell(colProtein)),
			Carbohydrates: CleanNutrient(cell(colCarbs)),
			Fat:           CleanNutrient(cell(colFat)),
			Images:        optionalText(cell(colImage)),
			Rating:        parseNumber(cell(colRating)),
			RatingsCount:  parseNumber(cell(colRatingsCount)),
			RecipeURL:     optionalText(cell(colRecipeURL)),
		})
	}
	return out, stats, nil
}

// CleanNutrient turns "12,5 g" or "450 kcal" into a number, or nil when nothing numeric remains.
func CleanNutrient(raw string) *float64 {
	s := strings.ReplaceAll(raw, " kcal", "")
	s = strings.ReplaceAll(s, "g", "")
	s = strings.ReplaceAll(s, "G", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseNumber(s)
}

func parseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func optionalText(s string) *string {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	return &s
}

// RecipeImporter bulk-loads the catalog with COPY.
type RecipeImporter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRecipeImporter connects a pgx pool to url.
func NewRecipeImporter(ctx context.Context, url string, logger *zap.Logger) (*RecipeImporter, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping failed: %w", err)
	}
	return &RecipeImporter{pool: pool, logger: logger}, nil
}

// Import copies recipes into the recipes table and returns the row count.
func (i *RecipeImporter) Import(ctx context.Context, recipes []*recipe.Recipe) (int64, error) {
	rows := make([][]interface{}, len(recipes))
	for n, r := range recipes {
		rows[n] = []interface{}{
			r.Name, r.Ingredients, r.CookTime, r.Calories, r.Protein, r.Carbohydrates,
			r.Fat, r.Images, r.Rating, r.RatingsCount, r.RecipeURL,
		}
	}

	copied, err := i.pool.CopyFrom(ctx, pgx.Identifier{"recipes"}, recipeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into recipes: %w", err)
	}
	i.logger.Info("Recipes imported", zap.Int64("rows", copied))
	return copied, nil
}

// Close closes the pool
func (i *RecipeImporter) Close() {
	i.pool.Close()
}
