// Package recipe contains the catalog and user-authored recipe entities together with the
// query rules used to search and sample them.
package recipe

import (
	"strings"
	"time"
)

// Recipe is an entry of the imported catalog. It is never modified through the API.
type Recipe struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Ingredients   string   `json:"ingredients"`
	CookTime      *string  `json:"cook_time"`
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Fat           *float64 `json:"fat"`
	Images        *string  `json:"images"`
	RatingsCount  *float64 `json:"ratings_count"`
	Rating        *float64 `json:"rating"`
	RecipeURL     *string  `json:"recipe_url"`
}

// UserRecipe is written by a user or generated by the model on a user's behalf.
type UserRecipe struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Descriptions  string    `json:"descriptions"`
	Ingredients   string    `json:"ingredients"`
	Instructions  string    `json:"instructions"`
	Category      *string   `json:"category"`
	CookTime      *string   `json:"cook_time"`
	Calories      *float64  `json:"calories"`
	Protein       *float64  `json:"protein"`
	Carbohydrates *float64  `json:"carbohydrates"`
	Fat           *float64  `json:"fat"`
	IsAI          bool      `json:"is_ai"`
	Servings      int       `json:"servings"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        *int64    `json:"user_id"`
}

// Validate checks the fields a stored user recipe must carry.
func (r *UserRecipe) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Servings < 1 {
		return ErrInvalidServings
	}
	return nil
}

// OwnedBy reports whether userID authored the recipe.
func (r *UserRecipe) OwnedBy(userID int64) bool {
	return r.UserID != nil && *r.UserID == userID
}

// UserRecipePatch carries a partial update; nil fields are left untouched.
type UserRecipePatch struct {
	Name          *string  `json:"name"`
	Descriptions  *string  `json:"descriptions"`
	Ingredients   *string  `json:"ingredients"`
	Instructions  *string  `json:"instructions"`
	Category      *string  `json:"category"`
	CookTime      *string  `json:"cook_time"`
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Fat           *float64 `json:"fat"`
	Servings      *int     `json:"servings"`
}

// Apply copies the set fields of p onto r and validates the result.
func (p UserRecipePatch) Apply(r *UserRecipe) error {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Descriptions != nil {
		r.Descriptions = *p.Descriptions
	}
	if p.Ingredients != nil {
		r.Ingredients = *p.Ingredients
	}
	if p.Instructions != nil {
		r.Instructions = *p.Instructions
	}
	if p.Category != nil {
		r.Category = p.Category
	}
	if p.CookTime != nil {
		r.CookTime = p.CookTime
	}
	if p.Calories != nil {
		r.Calories = p.Calories
	}
	if p.Protein != nil {
		r.Protein = p.Protein
	}
	if p.Carbohydrates != nil {
		r.Carbohydrates = p.Carbohydrates
	}
	if p.Fat != nil {
		r.Fat = p.Fat
	}
	if p.Servings != nil {
		r.Servings = *p.Servings
	}
	return r.Validate()
}

// Image links an uploaded object to a user recipe.
type Image struct {
	ID           int64  `json:"id"`
	Link         string `json:"link"`
	UserID       *int64 `json:"user_id"`
	UserRecipeID *int64 `json:"user_recipes_id"`
}
