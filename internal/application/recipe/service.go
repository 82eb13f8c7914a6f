// Package recipe provides the application layer for the catalog and user recipes.
package recipe

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgNoRecipes     = "Inga recept hittades"
	msgRecipeMissing = "Receptet hittades inte"
	msgNoSaved       = "Inga sparade recept hittades"
	msgNotSaved      = "Receptet är inte sparat"
	msgAlreadySaved  = "Receptet är redan sparat"
)

// RecipeService implements the catalog use cases
type RecipeService struct {
	recipes outbound.RecipeRepository
	ledger  outbound.CreditLedger
	tx      outbound.Transactor
	metrics outbound.BusinessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipes outbound.RecipeRepository,
	ledger outbound.CreditLedger,
	tx outbound.Transactor,
	metrics outbound.BusinessMetrics,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipes: recipes,
		ledger:  ledger,
		tx:      tx,
		metrics: metrics,
		logger:  logger.Named("recipe-service"),
		now:     time.Now,
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// Search returns one page of matches. An empty first page is a 404; later pages may be empty.
func (s *RecipeService) Search(ctx context.Context, q recipe.SearchQuery) ([]*recipe.Recipe, error) {
	if err := q.Normalize(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	results, err := s.recipes.Search(ctx, q)
	if err != nil {
		return nil, apperrors.NewDatabaseError("search recipes", err)
	}
	if len(results) == 0 && q.Page == 0 {
		return nil, apperrors.NewNotFoundError(msgNoRecipes)
	}
	return results, nil
}

// Random draws a fixed size sample, with replacement, from the category.
func (s *RecipeService) Random(ctx context.Context, category string) ([]*recipe.Recipe, error) {
	c := recipe.ParseCategory(category)
	results, err := s.recipes.Sample(ctx, c, recipe.RandomSampleSize)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(msgNoRecipes)
		}
		return nil, apperrors.NewDatabaseError("sample recipes", err)
	}
	return results, nil
}

func (s *RecipeService) Get(ctx context.Context, id int64) (*recipe.Recipe, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(msgRecipeMissing)
		}
		return nil, apperrors.NewDatabaseError("find recipe", err)
	}
	return r, nil
}

// Save bookmarks a catalog recipe and grants the daily bookmark bonus in the same transaction.
func (s *RecipeService) Save(ctx context.Context, caller inbound.Caller, recipeID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, recipeID); err != nil {
			return err
		}
		if err := s.recipes.Save(ctx, caller.UserID, recipeID); err != nil {
			if errors.Is(err, recipe.ErrAlreadySaved) {
				return apperrors.NewConflictError(msgAlreadySaved)
			}
			return apperrors.NewDatabaseError("save recipe", err)
		}
		return grantBookmarkBonus(ctx, s.ledger, s.metrics, s.logger, caller.UserID, s.now())
	})
}

func (s *RecipeService) Unsave(ctx context.Context, caller inbound.Caller, recipeID int64) error {
	if err := s.recipes.Unsave(ctx, caller.UserID, recipeID); err != nil {
		if errors.Is(err, recipe.ErrNotSaved) {
			return apperrors.NewNotFoundError(msgNotSaved)
		}
		return apperrors.NewDatabaseError("unsave recipe", err)
	}
	return nil
}

func (s *RecipeService) IsSaved(ctx context.Context, caller inbound.Caller, recipeID int64) (bool, error) {
	saved, err := s.recipes.IsSaved(ctx, caller.UserID, recipeID)
	if err != nil {
		return false, apperrors.NewDatabaseError("check saved recipe", err)
	}
	return saved, nil
}

func (s *RecipeService) ListSaved(ctx context.Context, caller inbound.Caller) ([]*recipe.Recipe, error) {
	saved, err := s.recipes.FindSaved(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list saved recipes", err)
	}
	if len(saved) == 0 {
		return nil, apperrors.NewNotFoundError(msgNoSaved)
	}
	return saved, nil
}

// grantBookmarkBonus adds the once-per-day bookmark credit. Both bookmark kinds share it.
func grantBookmarkBonus(
	ctx context.Context,
	ledger outbound.CreditLedger,
	metrics outbound.BusinessMetrics,
	logger *zap.Logger,
	userID int64,
	now time.Time,
) error {
	granted, err := ledger.GrantDaily(ctx, userID, user.BonusRecipeSaved, now)
	if err != nil {
		return apperrors.NewDatabaseError("grant daily bonus", err)
	}
	if granted {
		metrics.DailyBonus(string(user.BonusRecipeSaved))
		logger.Info("Daily bonus granted", zap.Int64("user_id", userID), zap.String("bonus", string(user.BonusRecipeSaved)))
	}
	return nil
}
