package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// UserRecipeRepository implements outbound.UserRecipeRepository using GORM
type UserRecipeRepository struct {
	db *gorm.DB
}

// NewUserRecipeRepository creates a new user recipe repository
func NewUserRecipeRepository(db *gorm.DB) outbound.UserRecipeRepository {
	return &UserRecipeRepository{db: db}
}

// Create inserts r and writes back its id and creation time.
func (r *UserRecipeRepository) Create(ctx context.Context, ur *recipe.UserRecipe) error {
	model := UserRecipeToModel(ur)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	ur.ID = model.ID
	ur.CreatedAt = model.CreatedAt
	return nil
}

// Update writes every column of r.
func (r *UserRecipeRepository) Update(ctx context.Context, ur *recipe.UserRecipe) error {
	result := conn(ctx, r.db).Model(&UserRecipeModel{ID: ur.ID}).
		Select("*").Omit("id", "created_at", "user_id").
		Updates(UserRecipeToModel(ur))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recipe.ErrUserRecipeMissing
	}
	return nil
}

// Delete removes a user recipe.
func (r *UserRecipeRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&UserRecipeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recipe.ErrUserRecipeMissing
	}
	return nil
}

// FindByID finds a user recipe by ID
func (r *UserRecipeRepository) FindByID(ctx context.Context, id int64) (*recipe.UserRecipe, error) {
	var model UserRecipeModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrUserRecipeMissing
		}
		return nil, err
	}
	return ModelToUserRecipe(&model), nil
}

// FindByUser lists a user's recipes, newest first.
func (r *UserRecipeRepository) FindByUser(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error) {
	var models []UserRecipeModel
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToUserRecipes(models), nil
}

// Save bookmarks a user recipe.
func (r *UserRecipeRepository) Save(ctx context.Context, userID, userRecipeID int64) error {
	err := conn(ctx, r.db).Create(&SavedUserRecipeModel{UserID: userID, UserRecipeID: userRecipeID}).Error
	if isDuplicate(err) {
		return recipe.ErrAlreadySaved
	}
	return err
}

// Unsave removes a bookmark.
func (r *UserRecipeRepository) Unsave(ctx context.Context, userID, userRecipeID int64) error {
	result := conn(ctx, r.db).
		Where("user_id = ? AND user_recipe_id = ?", userID, userRecipeID).
		Delete(&SavedUserRecipeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recipe.ErrNotSaved
	}
	return nil
}

// IsSaved reports whether the bookmark exists.
func (r *UserRecipeRepository) IsSaved(ctx context.Context, userID, userRecipeID int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&SavedUserRecipeModel{}).
		Where("user_id = ? AND user_recipe_id = ?", userID, userRecipeID).
		Count(&count).Error
	return count > 0, err
}

// FindSaved returns the user's bookmarked user recipes, most recently saved first.
func (r *UserRecipeRepository) FindSaved(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error) {
	var models []UserRecipeModel
	err := conn(ctx, r.db).
		Joins("JOIN saved_user_recipes ON saved_user_recipes.user_recipe_id = user_recipes.id").
		Where("saved_user_recipes.user_id = ?", userID).
		Order("saved_user_recipes.saved_at DESC, user_recipes.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return modelsToUserRecipes(models), nil
}

// CreateImage records an uploaded image.
func (r *UserRecipeRepository) CreateImage(ctx context.Context, img *recipe.Image) error {
	model := &ImageModel{Link: img.Link, UserID: img.UserID, UserRecipesID: img.UserRecipeID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	img.ID = model.ID
	return nil
}

// FindImageByUserRecipe returns the most recent image attached to a user recipe.
func (r *UserRecipeRepository) FindImageByUserRecipe(ctx context.Context, userRecipeID int64) (*recipe.Image, error) {
	var model ImageModel
	err := conn(ctx, r.db).
		Where("user_recipes_id = ?", userRecipeID).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrImageNotFound
		}
		return nil, err
	}
	return modelToImage(&model), nil
}
