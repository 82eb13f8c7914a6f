package gorm

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
	// intn picks an index in [0, n); replaced in tests.
	intn func(n int) int
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db, intn: rand.Intn}
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id int64) (*recipe.Recipe, error) {
	var model RecipeModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrNotFound
		}
		return nil, err
	}
	return ModelToRecipe(&model), nil
}

// Search applies every present filter as a conjunction and pages by id.
func (r *RecipeRepository) Search(ctx context.Context, q recipe.SearchQuery) ([]*recipe.Recipe, error) {
	query := conn(ctx, r.db).Model(&RecipeModel{})

	if q.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(q.Query))
	}
	if q.MaxCarbohydrates != nil {
		query = query.Where("carbohydrates <= ?", *q.MaxCarbohydrates)
	}
	if q.MaxCalories != nil {
		query = query.Where("calories <= ?", *q.MaxCalories)
	}
	if q.MinProtein != nil {
		query = query.Where("protein >= ?", *q.MinProtein)
	}
	for _, token := range q.IngredientTokens() {
		query = query.Where("LOWER(ingredients) LIKE ?", likePattern(token))
	}

	var models []RecipeModel
	err := query.
		Order("id ASC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToRecipes(models), nil
}

// Sample loads only the ids matching the category, draws n of them with replacement and
// then fetches the distinct rows. Duplicates in the draw are kept in the result.
func (r *RecipeRepository) Sample(ctx context.Context, c recipe.Category, n int) ([]*recipe.Recipe, error) {
	query := applyCategory(conn(ctx, r.db).Model(&RecipeModel{}), c)

	var ids []int64
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, recipe.ErrNotFound
	}

	drawn := make([]int64, n)
	for i := range drawn {
		drawn[i] = ids[r.intn(len(ids))]
	}

	var models []RecipeModel
	if err := conn(ctx, r.db).Where("id IN ?", uniqueIDs(drawn)).Find(&models).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*recipe.Recipe, len(models))
	for i := range models {
		byID[models[i].ID] = ModelToRecipe(&models[i])
	}

	out := make([]*recipe.Recipe, 0, n)
	for _, id := range drawn {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Save bookmarks a catalog recipe.
func (r *RecipeRepository) Save(ctx context.Context, userID, recipeID int64) error {
	err := conn(ctx, r.db).Create(&SavedRecipeModel{UserID: userID, RecipeID: recipeID}).Error
	if isDuplicate(err) {
		return recipe.ErrAlreadySaved
	}
	return err
}

// Unsave removes a bookmark.
func (r *RecipeRepository) Unsave(ctx context.Context, userID, recipeID int64) error {
	result := conn(ctx, r.db).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&SavedRecipeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recipe.ErrNotSaved
	}
	return nil
}

// IsSaved reports whether the bookmark exists.
func (r *RecipeRepository) IsSaved(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&SavedRecipeModel{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

// FindSaved returns the user's bookmarked catalog recipes, most recently saved first.
func (r *RecipeRepository) FindSaved(ctx context.Context, userID int64) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	err := conn(ctx, r.db).
		Joins("JOIN saved_recipes ON saved_recipes.recipe_id = recipes.id").
		Where("saved_recipes.user_id = ?", userID).
		Order("saved_recipes.saved_at DESC, recipes.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToRecipes(models), nil
}

// applyCategory adds the keyword rule of c to query.
func applyCategory(query *gorm.DB, c recipe.Category) *gorm.DB {
	keywords := c.Keywords()
	if len(keywords) == 0 {
		return query
	}
	clauses := make([]string, len(keywords))
	args := make([]interface{}, len(keywords))
	for i, k := range keywords {
		clauses[i] = "LOWER(ingredients) LIKE ?"
		args[i] = likePattern(k)
	}
	cond := "(" + strings.Join(clauses, " OR ") + ")"
	if c.Excludes() {
		cond = "NOT " + cond
	}
	return query.Where(cond, args...)
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
