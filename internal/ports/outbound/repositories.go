// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/social"
	"github.com/foodisave/backend/internal/domain/user"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Transactor runs fn inside one database transaction. Repositories called with the ctx
// handed to fn take part in that transaction; fn returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecipeRepository reads the catalog and manages catalog bookmarks.
type RecipeRepository interface {
	FindByID(ctx context.Context, id int64) (*recipe.Recipe, error)
	Search(ctx context.Context, q recipe.SearchQuery) ([]*recipe.Recipe, error)
	// Sample draws n recipes uniformly with replacement from those matching c.
	Sample(ctx context.Context, c recipe.Category, n int) ([]*recipe.Recipe, error)

	Save(ctx context.Context, userID, recipeID int64) error
	Unsave(ctx context.Context, userID, recipeID int64) error
	IsSaved(ctx context.Context, userID, recipeID int64) (bool, error)
	FindSaved(ctx context.Context, userID int64) ([]*recipe.Recipe, error)
}

// UserRecipeRepository manages user-authored recipes, their bookmarks and images.
type UserRecipeRepository interface {
	Create(ctx context.Context, r *recipe.UserRecipe) error
	Update(ctx context.Context, r *recipe.UserRecipe) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*recipe.UserRecipe, error)
	FindByUser(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error)

	Save(ctx context.Context, userID, userRecipeID int64) error
	Unsave(ctx context.Context, userID, userRecipeID int64) error
	IsSaved(ctx context.Context, userID, userRecipeID int64) (bool, error)
	FindSaved(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error)

	CreateImage(ctx context.Context, img *recipe.Image) error
	FindImageByUserRecipe(ctx context.Context, userRecipeID int64) (*recipe.Image, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Activate(ctx context.Context, id int64) error
}

// CreditLedger changes balances with single conditional statements so concurrent requests
// cannot overdraw or double grant.
type CreditLedger interface {
	// Debit subtracts cost when the balance covers it and returns the new balance.
	// It returns user.ErrInsufficientCredits when no row qualified.
	Debit(ctx context.Context, userID int64, cost int) (int, error)
	// GrantDaily adds the bonus when it has not been granted on now's UTC day and stamps now.
	GrantDaily(ctx context.Context, userID int64, bonus user.Bonus, now time.Time) (bool, error)
	Balance(ctx context.Context, userID int64) (int, error)
}

// TokenRepository stores session, password reset and activation tokens.
type TokenRepository interface {
	Create(ctx context.Context, t *user.Token) error
	Find(ctx context.Context, kind user.TokenKind, value string) (*user.Token, error)
	MarkUsed(ctx context.Context, kind user.TokenKind, value string) error
	Delete(ctx context.Context, kind user.TokenKind, value string) error
}

// SavedItemRepository manages shopping list rows.
type SavedItemRepository interface {
	Create(ctx context.Context, item *items.SavedItem) error
	CreateBatch(ctx context.Context, list []*items.SavedItem) error
	FindByUser(ctx context.Context, userID int64) ([]*items.SavedItem, error)
	FindForUser(ctx context.Context, userID, id int64) (*items.SavedItem, error)
	Update(ctx context.Context, item *items.SavedItem) error
	DeleteForUser(ctx context.Context, userID, id int64) error
}

// SocialRepository stores comments, reviews, follows and messages.
type SocialRepository interface {
	CreateComment(ctx context.Context, c *social.Comment) error
	ListComments(ctx context.Context, userRecipeID int64) ([]*social.Comment, error)
	CreateReview(ctx context.Context, r *social.Review) error
	ListReviews(ctx context.Context, recipeID int64) ([]*social.Review, error)
	Follow(ctx context.Context, f *social.Follow) error
	Unfollow(ctx context.Context, followerID, followeeID int64) error
	Followers(ctx context.Context, userID int64) ([]*social.Follow, error)
	Following(ctx context.Context, userID int64) ([]*social.Follow, error)
	CreateMessage(ctx context.Context, m *social.Message) error
	ListMessages(ctx context.Context, userID int64) ([]*social.Message, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// FillFunc produces a value on a cache miss and reports whether it may be stored.
type FillFunc func(ctx context.Context) (value []byte, keep bool, err error)

// ResponseCache memoizes accepted AI answers by key.
type ResponseCache interface {
	Remember(ctx context.Context, key string, fill FillFunc) ([]byte, error)
}

// GenerativeModel sends one prompt, optionally with an image, and returns the raw text.
type GenerativeModel interface {
	Generate(ctx context.Context, prompt string, image *ai.Attachment) (string, error)
}

// ImageClassifier returns the label scores for an image.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte) ([]ai.Prediction, error)
}

// StorageService defines the interface for file storage
type StorageService interface {
	// Upload stores data under key with a private ACL and returns the object's link.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Open streams the object addressed by a link returned from Upload.
	Open(ctx context.Context, link string) (io.ReadCloser, error)
	// Delete removes the object behind link. Deleting a missing object is not an error.
	Delete(ctx context.Context, link string) error
}

// ErrObjectNotFound is returned by StorageService.Open for missing objects.
var ErrObjectNotFound = errors.New("object not found")

// EmailService sends transactional mail.
type EmailService interface {
	SendPasswordReset(ctx context.Context, to, token string) error
	SendActivation(ctx context.Context, to, token string) error
}

// BusinessMetrics records domain events for monitoring.
type BusinessMetrics interface {
	AIRequest(operation, status string, duration time.Duration)
	CreditsDebited(operation string, amount int)
	InsufficientCredits(operation string)
	DailyBonus(bonus string)
	ModerationVerdict(nsfw bool)
	UserRegistered()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) AIRequest(string, string, time.Duration) {}
func (NopMetrics) CreditsDebited(string, int)              {}
func (NopMetrics) InsufficientCredits(string)              {}
func (NopMetrics) DailyBonus(string)                       {}
func (NopMetrics) ModerationVerdict(bool)                  {}
func (NopMetrics) UserRegistered()                         {}
