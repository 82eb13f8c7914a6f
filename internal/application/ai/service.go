package ai

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	domain "github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	opShoppingList      = "shopping_list"
	opSuggestSimilar    = "suggest_recipe"
	opChangeIngredients = "change_ingredients"
	opAddIngredients    = "add_ingredients"
	opIngredientsImage  = "suggest_from_image"
	opPlateImage        = "suggest_from_plate_image"
	opBoughtItems       = "bought_items"
	opChat              = "chat"

	noAnswer = "Inget svar mottaget."
)

// Service implements inbound.AIService
type Service struct {
	recipes outbound.RecipeRepository
	items   outbound.SavedItemRepository
	ledger  outbound.CreditLedger
	tx      outbound.Transactor
	bridge  *Bridge
	gate    *ModerationGate
	costs   config.CreditsConfig
	metrics outbound.BusinessMetrics
	logger  *zap.Logger
}

// NewService creates the AI use cases.
func NewService(
	recipes outbound.RecipeRepository,
	savedItems outbound.SavedItemRepository,
	ledger outbound.CreditLedger,
	tx outbound.Transactor,
	bridge *Bridge,
	gate *ModerationGate,
	costs config.CreditsConfig,
	metrics outbound.BusinessMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		recipes: recipes,
		items:   savedItems,
		ledger:  ledger,
		tx:      tx,
		bridge:  bridge,
		gate:    gate,
		costs:   costs,
		metrics: metrics,
		logger:  logger.Named("ai-service"),
	}
}

var _ inbound.AIService = (*Service)(nil)

func (s *Service) ShoppingList(ctx context.Context, recipeID int64, portions int) (json.RawMessage, error) {
	if portions < 1 {
		return nil, apperrors.NewBadRequestError("Antal portioner måste vara minst 1")
	}
	r, err := s.catalogRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.bridge.Run(ctx, Request{Operation: opShoppingList, Prompt: shoppingListPrompt(r, portions), Key: domain.KeyRecipes})
}

func (s *Service) SuggestSimilar(ctx context.Context, recipeID int64) (json.RawMessage, error) {
	r, err := s.catalogRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.bridge.Run(ctx, Request{Operation: opSuggestSimilar, Prompt: similarPrompt(r), Key: domain.KeyRecipes})
}

func (s *Service) ChangeIngredients(ctx context.Context, recipeID int64, ingredients string) (json.RawMessage, error) {
	list, err := ingredientList(ingredients)
	if err != nil {
		return nil, err
	}
	r, err := s.catalogRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.bridge.Run(ctx, Request{Operation: opChangeIngredients, Prompt: changeIngredientsPrompt(r, list), Key: domain.KeyRecipes})
}

func (s *Service) AddIngredients(ctx context.Context, recipeID int64, ingredients string) (json.RawMessage, error) {
	list, err := ingredientList(ingredients)
	if err != nil {
		return nil, err
	}
	r, err := s.catalogRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.bridge.Run(ctx, Request{Operation: opAddIngredients, Prompt: addIngredientsPrompt(r, list), Key: domain.KeyRecipes})
}

func (s *Service) SuggestFromIngredientsImage(ctx context.Context, caller inbound.Caller, file inbound.ImageUpload) (json.RawMessage, error) {
	return s.paidImageRequest(ctx, caller, file, s.costs.ImageSuggestion, Request{
		Operation: opIngredientsImage,
		Prompt:    ingredientsImagePrompt,
		Key:       domain.KeyRecipes,
	}, nil)
}

func (s *Service) SuggestFromPlateImage(ctx context.Context, caller inbound.Caller, file inbound.ImageUpload) (json.RawMessage, error) {
	return s.paidImageRequest(ctx, caller, file, s.costs.ImageSuggestion, Request{
		Operation: opPlateImage,
		Prompt:    plateImagePrompt,
		Key:       domain.KeyRecipes,
	}, nil)
}

// BoughtItemsFromImage reads groceries off a photo and appends them to the shopping list.
func (s *Service) BoughtItemsFromImage(ctx context.Context, caller inbound.Caller, file inbound.ImageUpload) (json.RawMessage, error) {
	return s.paidImageRequest(ctx, caller, file, s.costs.BoughtItems, Request{
		Operation: opBoughtItems,
		Prompt:    boughtItemsPrompt,
		Key:       domain.KeyItems,
	}, func(ctx context.Context, result json.RawMessage) error {
		return s.storeItems(ctx, caller.UserID, result)
	})
}

func (s *Service) Chat(ctx context.Context, caller inbound.Caller, contextText, message string) (string, error) {
	var answer string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.debit(ctx, caller.UserID, s.costs.Chat, opChat); err != nil {
			return err
		}
		text, err := s.bridge.Text(ctx, opChat, chatPrompt(contextText, message))
		if err != nil {
			return err
		}
		answer = text
		return nil
	})
	if err != nil {
		return "", err
	}
	if answer == "" {
		return noAnswer, nil
	}
	return answer, nil
}

func (s *Service) Moderate(ctx context.Context, file inbound.ImageUpload) (domain.Verdict, error) {
	return s.gate.Inspect(ctx, file.FileName, file.Data)
}

// paidImageRequest runs the gate first, then debits and calls the model in one transaction
// so a failed call leaves the balance untouched. after runs inside the same transaction.
func (s *Service) paidImageRequest(
	ctx context.Context,
	caller inbound.Caller,
	file inbound.ImageUpload,
	cost int,
	req Request,
	after func(ctx context.Context, result json.RawMessage) error,
) (json.RawMessage, error) {
	contentType, err := SniffImageType(file.Data)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(ctx, file.FileName, file.Data); err != nil {
		return nil, err
	}
	req.Image = &domain.Attachment{FileName: file.FileName, MIMEType: contentType, Data: file.Data}

	var result json.RawMessage
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.debit(ctx, caller.UserID, cost, req.Operation); err != nil {
			return err
		}
		out, err := s.bridge.Run(ctx, req)
		if err != nil {
			return err
		}
		if after != nil {
			if err := after(ctx, out); err != nil {
				return err
			}
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) debit(ctx context.Context, userID int64, cost int, operation string) error {
	balance, err := s.ledger.Debit(ctx, userID, cost)
	if err != nil {
		if errors.Is(err, user.ErrInsufficientCredits) {
			s.metrics.InsufficientCredits(operation)
			return apperrors.NewPaymentRequiredError().WithCause(err)
		}
		if errors.Is(err, user.ErrNotFound) {
			return apperrors.NewNotFoundError("Användaren hittades inte")
		}
		return apperrors.NewDatabaseError("debit credits", err)
	}
	s.metrics.CreditsDebited(operation, cost)
	s.logger.Info("Credits debited",
		zap.Int64("user_id", userID),
		zap.String("operation", operation),
		zap.Int("cost", cost),
		zap.Int("balance", balance),
	)
	return nil
}

type boughtItem struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

func (s *Service) storeItems(ctx context.Context, userID int64, result json.RawMessage) error {
	if isEmptyList(result) {
		return nil
	}
	var found []boughtItem
	if err := json.Unmarshal(result, &found); err != nil {
		// The list is returned as-is even when entries are not name/size objects.
		s.logger.Warn("Bought items not stored", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	list := make([]*items.SavedItem, 0, len(found))
	for _, f := range found {
		owner := userID
		item := &items.SavedItem{Item: f.Name, Size: f.Size, UserID: &owner}
		if item.Validate() != nil {
			continue
		}
		list = append(list, item)
	}
	if len(list) == 0 {
		return nil
	}
	if err := s.items.CreateBatch(ctx, list); err != nil {
		return apperrors.NewDatabaseError("save bought items", err)
	}
	return nil
}

func (s *Service) catalogRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Receptet hittades inte")
		}
		return nil, apperrors.NewDatabaseError("find recipe", err)
	}
	return r, nil
}

func ingredientList(raw string) ([]string, error) {
	list := recipe.SplitList(raw)
	if len(list) == 0 {
		return nil, apperrors.NewBadRequestError("Ange minst en ingrediens")
	}
	return list, nil
}
