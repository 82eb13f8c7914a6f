// Package inbound defines the use cases the HTTP adapter drives.
package inbound

import (
	"context"
	"io"

	"github.com/goccy/go-json"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/social"
	"github.com/foodisave/backend/internal/domain/user"
)

// Caller identifies the authenticated user behind a request.
type Caller struct {
	UserID    int64
	IsAdmin   bool
	SessionID string
}

// RecipeService reads the catalog and manages catalog bookmarks.
type RecipeService interface {
	Search(ctx context.Context, q recipe.SearchQuery) ([]*recipe.Recipe, error)
	Random(ctx context.Context, category string) ([]*recipe.Recipe, error)
	Get(ctx context.Context, id int64) (*recipe.Recipe, error)

	Save(ctx context.Context, caller Caller, recipeID int64) error
	Unsave(ctx context.Context, caller Caller, recipeID int64) error
	IsSaved(ctx context.Context, caller Caller, recipeID int64) (bool, error)
	ListSaved(ctx context.Context, caller Caller) ([]*recipe.Recipe, error)
}

// ImageUpload is a file received in a multipart form.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadedImage is returned after an image was stored.
type UploadedImage struct {
	ImageID  int64  `json:"image_id"`
	ImageURL string `json:"image_url"`
}

// ImageStream is an object opened for streaming to the client.
type ImageStream struct {
	Body        io.ReadCloser
	ContentType string
}

// UserRecipeService manages user-authored recipes, their bookmarks and images.
type UserRecipeService interface {
	Create(ctx context.Context, caller Caller, r *recipe.UserRecipe) (*recipe.UserRecipe, error)
	ListByUser(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error)
	Update(ctx context.Context, caller Caller, id int64, patch recipe.UserRecipePatch) (*recipe.UserRecipe, error)
	Delete(ctx context.Context, caller Caller, id int64) error

	Save(ctx context.Context, caller Caller, userRecipeID int64) error
	Unsave(ctx context.Context, caller Caller, userRecipeID int64) error
	IsSaved(ctx context.Context, caller Caller, userRecipeID int64) (bool, error)
	ListSaved(ctx context.Context, caller Caller) ([]*recipe.UserRecipe, error)

	UploadImage(ctx context.Context, caller Caller, userRecipeID int64, file ImageUpload) (*UploadedImage, error)
	OpenImage(ctx context.Context, caller Caller, userRecipeID int64) (*ImageStream, error)
}

// AIService runs the prompt bridge for every generative endpoint. Results are the raw JSON
// under the expected key.
type AIService interface {
	ShoppingList(ctx context.Context, recipeID int64, portions int) (json.RawMessage, error)
	SuggestSimilar(ctx context.Context, recipeID int64) (json.RawMessage, error)
	ChangeIngredients(ctx context.Context, recipeID int64, ingredients string) (json.RawMessage, error)
	AddIngredients(ctx context.Context, recipeID int64, ingredients string) (json.RawMessage, error)

	SuggestFromIngredientsImage(ctx context.Context, caller Caller, file ImageUpload) (json.RawMessage, error)
	SuggestFromPlateImage(ctx context.Context, caller Caller, file ImageUpload) (json.RawMessage, error)
	BoughtItemsFromImage(ctx context.Context, caller Caller, file ImageUpload) (json.RawMessage, error)
	Chat(ctx context.Context, caller Caller, contextText, message string) (string, error)

	// Moderate runs the image gate on its own.
	Moderate(ctx context.Context, file ImageUpload) (ai.Verdict, error)
}

// Registration is the input of a new account.
type Registration struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// AccessToken is the login response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserService manages accounts, sessions and the one-time token flows.
type UserService interface {
	Register(ctx context.Context, reg Registration) (*user.User, error)
	Login(ctx context.Context, email, password string) (*AccessToken, error)
	Logout(ctx context.Context, caller Caller) error
	// Authenticate resolves a bearer token to its caller. The session must still exist.
	Authenticate(ctx context.Context, token string) (Caller, error)

	Me(ctx context.Context, caller Caller) (*user.User, error)
	UpdateProfile(ctx context.Context, caller Caller, update user.ProfileUpdate) (*user.User, error)
	ChangePassword(ctx context.Context, caller Caller, current, next string) error
	DeleteAccount(ctx context.Context, caller Caller) error

	List(ctx context.Context, caller Caller) ([]*user.User, error)
	AdminUpdate(ctx context.Context, caller Caller, id int64, update user.AdminUpdate) (*user.User, error)

	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	ConfirmActivation(ctx context.Context, token string) error
}

// ItemService manages the caller's shopping list.
type ItemService interface {
	Create(ctx context.Context, caller Caller, item *items.SavedItem) (*items.SavedItem, error)
	List(ctx context.Context, caller Caller) ([]*items.SavedItem, error)
	Update(ctx context.Context, caller Caller, id int64, update items.Update) (*items.SavedItem, error)
	Delete(ctx context.Context, caller Caller, id int64) error
}

// SocialService covers comments, reviews, follows and messages.
type SocialService interface {
	Comment(ctx context.Context, caller Caller, userRecipeID int64, content string) (*social.Comment, error)
	Comments(ctx context.Context, userRecipeID int64) ([]*social.Comment, error)
	Review(ctx context.Context, caller Caller, recipeID int64, content string) (*social.Review, error)
	Reviews(ctx context.Context, recipeID int64) ([]*social.Review, error)

	Follow(ctx context.Context, caller Caller, userID int64) (*social.Follow, error)
	Unfollow(ctx context.Context, caller Caller, userID int64) error
	Followers(ctx context.Context, userID int64) ([]*social.Follow, error)
	Following(ctx context.Context, userID int64) ([]*social.Follow, error)

	SendMessage(ctx context.Context, caller Caller, receiverID int64, content string) (*social.Message, error)
	Messages(ctx context.Context, caller Caller) ([]*social.Message, error)
}
