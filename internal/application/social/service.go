// Package social implements comments, reviews, follows and direct messages.
package social

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/social"
	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgRecipeMissing    = "Receptet hittades inte"
	msgUserMissing      = "Användaren hittades inte"
	msgEmptyContent     = "Innehållet får inte vara tomt"
	msgContentTooLong   = "Innehållet är för långt"
	msgSelfFollow       = "Du kan inte följa dig själv"
	msgAlreadyFollowing = "Du följer redan denna användare"
	msgNotFollowing     = "Du följer inte denna användare"
	msgSelfMessage      = "Du kan inte skicka meddelanden till dig själv"
)

// Service implements inbound.SocialService.
type Service struct {
	social      outbound.SocialRepository
	users       outbound.UserRepository
	recipes     outbound.RecipeRepository
	userRecipes outbound.UserRecipeRepository
	logger      *zap.Logger
}

func NewService(
	socialRepo outbound.SocialRepository,
	users outbound.UserRepository,
	recipes outbound.RecipeRepository,
	userRecipes outbound.UserRecipeRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		social:      socialRepo,
		users:       users,
		recipes:     recipes,
		userRecipes: userRecipes,
		logger:      logger.Named("social-service"),
	}
}

var _ inbound.SocialService = (*Service)(nil)

// Comment adds a comment to a user recipe.
func (s *Service) Comment(ctx context.Context, caller inbound.Caller, userRecipeID int64, content string) (*social.Comment, error) {
	content, err := social.CleanContent(content)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.userRecipes.FindByID(ctx, userRecipeID); err != nil {
		return nil, mapError(err)
	}

	c := &social.Comment{Content: content, UserID: &caller.UserID, UserRecipeID: &userRecipeID}
	if err := s.social.CreateComment(ctx, c); err != nil {
		return nil, apperrors.NewDatabaseError("create comment", err)
	}
	return c, nil
}

func (s *Service) Comments(ctx context.Context, userRecipeID int64) ([]*social.Comment, error) {
	if _, err := s.userRecipes.FindByID(ctx, userRecipeID); err != nil {
		return nil, mapError(err)
	}
	list, err := s.social.ListComments(ctx, userRecipeID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list comments", err)
	}
	return list, nil
}

// Review adds a review to a catalog recipe.
func (s *Service) Review(ctx context.Context, caller inbound.Caller, recipeID int64, content string) (*social.Review, error) {
	content, err := social.CleanContent(content)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		return nil, mapError(err)
	}

	r := &social.Review{Content: content, UserID: &caller.UserID, RecipeID: &recipeID}
	if err := s.social.CreateReview(ctx, r); err != nil {
		return nil, apperrors.NewDatabaseError("create review", err)
	}
	return r, nil
}

func (s *Service) Reviews(ctx context.Context, recipeID int64) ([]*social.Review, error) {
	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		return nil, mapError(err)
	}
	list, err := s.social.ListReviews(ctx, recipeID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list reviews", err)
	}
	return list, nil
}

// Follow makes the caller follow userID.
func (s *Service) Follow(ctx context.Context, caller inbound.Caller, userID int64) (*social.Follow, error) {
	if caller.UserID == userID {
		return nil, mapError(social.ErrSelfFollow)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, mapError(err)
	}

	f := &social.Follow{FollowerID: caller.UserID, FolloweeID: userID}
	if err := s.social.Follow(ctx, f); err != nil {
		return nil, mapError(err)
	}
	s.logger.Debug("User followed", zap.Int64("follower_id", caller.UserID), zap.Int64("followee_id", userID))
	return f, nil
}

func (s *Service) Unfollow(ctx context.Context, caller inbound.Caller, userID int64) error {
	if err := s.social.Unfollow(ctx, caller.UserID, userID); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Service) Followers(ctx context.Context, userID int64) ([]*social.Follow, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, mapError(err)
	}
	list, err := s.social.Followers(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list followers", err)
	}
	return list, nil
}

func (s *Service) Following(ctx context.Context, userID int64) ([]*social.Follow, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, mapError(err)
	}
	list, err := s.social.Following(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list following", err)
	}
	return list, nil
}

// SendMessage delivers a direct message to receiverID.
func (s *Service) SendMessage(ctx context.Context, caller inbound.Caller, receiverID int64, content string) (*social.Message, error) {
	if caller.UserID == receiverID {
		return nil, mapError(social.ErrSelfMessage)
	}
	content, err := social.CleanContent(content)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		return nil, mapError(err)
	}

	m := &social.Message{Content: content, SenderUserID: &caller.UserID, ReceiverUserID: &receiverID}
	if err := s.social.CreateMessage(ctx, m); err != nil {
		return nil, apperrors.NewDatabaseError("create message", err)
	}
	return m, nil
}

// Messages returns the caller's inbox and sent messages, newest first.
func (s *Service) Messages(ctx context.Context, caller inbound.Caller) ([]*social.Message, error) {
	list, err := s.social.ListMessages(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list messages", err)
	}
	return list, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, social.ErrEmptyContent):
		return apperrors.NewBadRequestError(msgEmptyContent)
	case errors.Is(err, social.ErrContentTooLong):
		return apperrors.NewBadRequestError(msgContentTooLong)
	case errors.Is(err, social.ErrSelfFollow):
		return apperrors.NewBadRequestError(msgSelfFollow)
	case errors.Is(err, social.ErrSelfMessage):
		return apperrors.NewBadRequestError(msgSelfMessage)
	case errors.Is(err, social.ErrAlreadyFollowing):
		return apperrors.NewConflictError(msgAlreadyFollowing)
	case errors.Is(err, social.ErrNotFollowing):
		return apperrors.NewNotFoundError(msgNotFollowing)
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, recipe.ErrUserRecipeMissing):
		return apperrors.NewNotFoundError(msgRecipeMissing)
	case errors.Is(err, user.ErrNotFound):
		return apperrors.NewNotFoundError(msgUserMissing)
	default:
		return apperrors.NewDatabaseError("social", err)
	}
}
