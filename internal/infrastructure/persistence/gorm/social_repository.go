package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/social"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// SocialRepository implements outbound.SocialRepository using GORM
type SocialRepository struct {
	db *gorm.DB
}

// NewSocialRepository creates a new social repository
func NewSocialRepository(db *gorm.DB) outbound.SocialRepository {
	return &SocialRepository{db: db}
}

func (r *SocialRepository) CreateComment(ctx context.Context, c *social.Comment) error {
	model := &CommentModel{Content: c.Content, UserID: c.UserID, UserRecipesID: c.UserRecipeID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	c.ID, c.CreatedAt = model.ID, model.CreatedAt
	return nil
}

func (r *SocialRepository) ListComments(ctx context.Context, userRecipeID int64) ([]*social.Comment, error) {
	var models []CommentModel
	err := conn(ctx, r.db).Where("user_recipes_id = ?", userRecipeID).Order("created_at ASC, id ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*social.Comment, len(models))
	for i := range models {
		out[i] = modelToComment(&models[i])
	}
	return out, nil
}

func (r *SocialRepository) CreateReview(ctx context.Context, rv *social.Review) error {
	model := &ReviewModel{Content: rv.Content, UserID: rv.UserID, RecipesID: rv.RecipeID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	rv.ID, rv.CreatedAt = model.ID, model.CreatedAt
	return nil
}

func (r *SocialRepository) ListReviews(ctx context.Context, recipeID int64) ([]*social.Review, error) {
	var models []ReviewModel
	err := conn(ctx, r.db).Where("recipes_id = ?", recipeID).Order("created_at ASC, id ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*social.Review, len(models))
	for i := range models {
		out[i] = modelToReview(&models[i])
	}
	return out, nil
}

// Follow inserts the edge. A repeated follow is social.ErrAlreadyFollowing.
func (r *SocialRepository) Follow(ctx context.Context, f *social.Follow) error {
	model := &UserFollowModel{FollowerUserID: f.FollowerID, FolloweeUserID: f.FolloweeID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicate(err) {
			return social.ErrAlreadyFollowing
		}
		return err
	}
	f.CreatedAt = model.CreatedAt
	return nil
}

func (r *SocialRepository) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	result := conn(ctx, r.db).
		Where("follower_user_id = ? AND followee_user_id = ?", followerID, followeeID).
		Delete(&UserFollowModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return social.ErrNotFollowing
	}
	return nil
}

// Followers lists the edges pointing at userID.
func (r *SocialRepository) Followers(ctx context.Context, userID int64) ([]*social.Follow, error) {
	return r.follows(conn(ctx, r.db).Where("followee_user_id = ?", userID))
}

// Following lists the edges leaving userID.
func (r *SocialRepository) Following(ctx context.Context, userID int64) ([]*social.Follow, error) {
	return r.follows(conn(ctx, r.db).Where("follower_user_id = ?", userID))
}

func (r *SocialRepository) follows(query *gorm.DB) ([]*social.Follow, error) {
	var models []UserFollowModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*social.Follow, len(models))
	for i := range models {
		out[i] = modelToFollow(&models[i])
	}
	return out, nil
}

func (r *SocialRepository) CreateMessage(ctx context.Context, m *social.Message) error {
	model := &MessageModel{Content: m.Content, SenderUserID: m.SenderUserID, ReceiverUserID: m.ReceiverUserID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	m.ID, m.CreatedAt = model.ID, model.CreatedAt
	return nil
}

// ListMessages returns everything sent or received by userID, newest first.
func (r *SocialRepository) ListMessages(ctx context.Context, userID int64) ([]*social.Message, error) {
	var models []MessageModel
	err := conn(ctx, r.db).
		Where("sender_user_id = ? OR receiver_user_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*social.Message, len(models))
	for i := range models {
		out[i] = modelToMessage(&models[i])
	}
	return out, nil
}
