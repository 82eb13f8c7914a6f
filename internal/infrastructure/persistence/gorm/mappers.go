package gorm

import (
	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/social"
	"github.com/foodisave/backend/internal/domain/user"
)

// UserToModel converts a domain user to a GORM model
func UserToModel(u *user.User) *UserModel {
	return &UserModel{
		ID:                    u.ID,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Email:                 u.Email,
		IsAdmin:               u.IsAdmin,
		IsActive:              u.IsActive,
		Credits:               u.Credits,
		HashedPassword:        u.PasswordHash,
		Level:                 u.Level,
		LastCreditRefill:      u.LastCreditRefill,
		LastLoginCredit:       u.LastLoginCredit,
		LastRecipeSavedCredit: u.LastRecipeSavedCredit,
		CreatedAt:             u.CreatedAt,
	}
}

// ModelToUser converts a GORM model to a domain user
func ModelToUser(m *UserModel) *user.User {
	return &user.User{
		ID:                    m.ID,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		Email:                 m.Email,
		IsAdmin:               m.IsAdmin,
		IsActive:              m.IsActive,
		Credits:               m.Credits,
		Level:                 m.Level,
		PasswordHash:          m.HashedPassword,
		LastCreditRefill:      m.LastCreditRefill,
		LastLoginCredit:       m.LastLoginCredit,
		LastRecipeSavedCredit: m.LastRecipeSavedCredit,
		CreatedAt:             m.CreatedAt,
	}
}

// ModelToRecipe converts a catalog row to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	return &recipe.Recipe{
		ID:            m.ID,
		Name:          m.Name,
		Ingredients:   m.Ingredients,
		CookTime:      m.CookTime,
		Calories:      m.Calories,
		Protein:       m.Protein,
		Carbohydrates: m.Carbohydrates,
		Fat:           m.Fat,
		Images:        m.Images,
		RatingsCount:  m.RatingsCount,
		Rating:        m.Rating,
		RecipeURL:     m.RecipeURL,
	}
}

// RecipeToModel is used by seeding and the importer.
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		ID:            r.ID,
		Name:          r.Name,
		Ingredients:   r.Ingredients,
		CookTime:      r.CookTime,
		Calories:      r.Calories,
		Protein:       r.Protein,
		Carbohydrates: r.Carbohydrates,
		Fat:           r.Fat,
		Images:        r.Images,
		RatingsCount:  r.RatingsCount,
		Rating:        r.Rating,
		RecipeURL:     r.RecipeURL,
	}
}

// UserRecipeToModel converts a domain user recipe to a GORM model
func UserRecipeToModel(r *recipe.UserRecipe) *UserRecipeModel {
	return &UserRecipeModel{
		ID:            r.ID,
		Name:          r.Name,
		Descriptions:  r.Descriptions,
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		Category:      r.Category,
		CookTime:      r.CookTime,
		Calories:      r.Calories,
		Protein:       r.Protein,
		Carbohydrates: r.Carbohydrates,
		Fat:           r.Fat,
		IsAI:          r.IsAI,
		Servings:      r.Servings,
		CreatedAt:     r.CreatedAt,
		UserID:        r.UserID,
	}
}

// ModelToUserRecipe converts a GORM model to a domain user recipe
func ModelToUserRecipe(m *UserRecipeModel) *recipe.UserRecipe {
	return &recipe.UserRecipe{
		ID:            m.ID,
		Name:          m.Name,
		Descriptions:  m.Descriptions,
		Ingredients:   m.Ingredients,
		Instructions:  m.Instructions,
		Category:      m.Category,
		CookTime:      m.CookTime,
		Calories:      m.Calories,
		Protein:       m.Protein,
		Carbohydrates: m.Carbohydrates,
		Fat:           m.Fat,
		IsAI:          m.IsAI,
		Servings:      m.Servings,
		CreatedAt:     m.CreatedAt,
		UserID:        m.UserID,
	}
}

func modelToImage(m *ImageModel) *recipe.Image {
	return &recipe.Image{
		ID:           m.ID,
		Link:         m.Link,
		UserID:       m.UserID,
		UserRecipeID: m.UserRecipesID,
	}
}

func modelToSavedItem(m *SavedItemModel) *items.SavedItem {
	return &items.SavedItem{ID: m.ID, Item: m.Item, Size: m.Size, UserID: m.UserID}
}

func modelToComment(m *CommentModel) *social.Comment {
	return &social.Comment{
		ID:           m.ID,
		Content:      m.Content,
		CreatedAt:    m.CreatedAt,
		UserID:       m.UserID,
		UserRecipeID: m.UserRecipesID,
	}
}

func modelToReview(m *ReviewModel) *social.Review {
	return &social.Review{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UserID:    m.UserID,
		RecipeID:  m.RecipesID,
	}
}

func modelToMessage(m *MessageModel) *social.Message {
	return &social.Message{
		ID:             m.ID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		SenderUserID:   m.SenderUserID,
		ReceiverUserID: m.ReceiverUserID,
	}
}

func modelToFollow(m *UserFollowModel) *social.Follow {
	return &social.Follow{
		FollowerID: m.FollowerUserID,
		FolloweeID: m.FolloweeUserID,
		CreatedAt:  m.CreatedAt,
	}
}

func modelsToRecipes(models []RecipeModel) []*recipe.Recipe {
	out := make([]*recipe.Recipe, len(models))
	for i := range models {
		out[i] = ModelToRecipe(&models[i])
	}
	return out
}

func modelsToUserRecipes(models []UserRecipeModel) []*recipe.UserRecipe {
	out := make([]*recipe.UserRecipe, len(models))
	for i := range models {
		out[i] = ModelToUserRecipe(&models[i])
	}
	return out
}
