// Package gorm provides GORM model definitions and repository implementations.
// Relationships are expressed as foreign key columns only; joins happen at query time.
package gorm

import (
	"time"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID                    int64  `gorm:"primaryKey;autoIncrement"`
	FirstName             string `gorm:"type:varchar(255);not null"`
	LastName              string `gorm:"type:varchar(255);not null"`
	Email                 string `gorm:"type:varchar(150);uniqueIndex;not null"`
	IsAdmin               bool   `gorm:"not null;default:false"`
	IsActive              bool   `gorm:"not null;default:false"`
	Credits               int    `gorm:"not null;default:0;check:credits >= 0"`
	HashedPassword        string `gorm:"type:varchar(150);not null"`
	Level                 int    `gorm:"not null;default:1"`
	LastCreditRefill      *time.Time
	LastLoginCredit       *time.Time
	LastRecipeSavedCredit *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string { return "users" }

// RecipeModel is a catalog row.
type RecipeModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"type:varchar(100);not null;index"`
	Ingredients   string `gorm:"type:text;not null"`
	CookTime      *string
	Calories      *float64 `gorm:"type:numeric"`
	Protein       *float64 `gorm:"type:numeric"`
	Carbohydrates *float64 `gorm:"type:numeric"`
	Fat           *float64 `gorm:"type:numeric"`
	Images        *string  `gorm:"type:text"`
	RatingsCount  *float64 `gorm:"type:numeric"`
	Rating        *float64 `gorm:"type:numeric"`
	RecipeURL     *string  `gorm:"type:text"`
}

func (RecipeModel) TableName() string { return "recipes" }

// UserRecipeModel is a user-authored or generated recipe.
type UserRecipeModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"type:varchar(100);not null"`
	Descriptions  string `gorm:"type:text;not null"`
	Ingredients   string `gorm:"type:text;not null"`
	Instructions  string `gorm:"type:text;not null"`
	Category      *string
	CookTime      *string
	Calories      *float64 `gorm:"type:numeric"`
	Protein       *float64 `gorm:"type:numeric"`
	Carbohydrates *float64 `gorm:"type:numeric"`
	Fat           *float64 `gorm:"type:numeric"`
	IsAI          bool     `gorm:"column:is_ai;not null;default:false"`
	Servings      int      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UserID        *int64    `gorm:"index"`
	User          *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (UserRecipeModel) TableName() string { return "user_recipes" }

// ImageModel links an S3 object to a user recipe.
type ImageModel struct {
	ID            int64            `gorm:"primaryKey;autoIncrement"`
	Link          string           `gorm:"type:varchar(255);not null"`
	UserID        *int64           `gorm:"index"`
	UserRecipesID *int64           `gorm:"column:user_recipes_id;index"`
	User          *UserModel       `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	UserRecipe    *UserRecipeModel `gorm:"foreignKey:UserRecipesID;constraint:OnDelete:SET NULL"`
}

func (ImageModel) TableName() string { return "images" }

// SavedRecipeModel bookmarks a catalog recipe.
type SavedRecipeModel struct {
	UserID   int64        `gorm:"primaryKey;autoIncrement:false"`
	RecipeID int64        `gorm:"primaryKey;autoIncrement:false"`
	SavedAt  time.Time    `gorm:"autoCreateTime"`
	User     *UserModel   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe   *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (SavedRecipeModel) TableName() string { return "saved_recipes" }

// SavedUserRecipeModel bookmarks a user recipe.
type SavedUserRecipeModel struct {
	UserID       int64            `gorm:"primaryKey;autoIncrement:false"`
	UserRecipeID int64            `gorm:"primaryKey;autoIncrement:false"`
	SavedAt      time.Time        `gorm:"autoCreateTime"`
	User         *UserModel       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	UserRecipe   *UserRecipeModel `gorm:"foreignKey:UserRecipeID;constraint:OnDelete:CASCADE"`
}

func (SavedUserRecipeModel) TableName() string { return "saved_user_recipes" }

// TokenModel holds login sessions.
type TokenModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	Token     string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	UserID    int64      `gorm:"not null;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	User      *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (TokenModel) TableName() string { return "tokens" }

// PasswordResetTokenModel is a single use reset link.
type PasswordResetTokenModel struct {
	ID      int64      `gorm:"primaryKey;autoIncrement"`
	Token   string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	UserID  int64      `gorm:"not null;index"`
	Used    bool       `gorm:"not null;default:false"`
	Created time.Time  `gorm:"autoCreateTime"`
	User    *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (PasswordResetTokenModel) TableName() string { return "password_reset_tokens" }

// ActivationTokenModel is a single use activation link.
type ActivationTokenModel struct {
	ID      int64      `gorm:"primaryKey;autoIncrement"`
	Token   string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	UserID  int64      `gorm:"not null;index"`
	Used    bool       `gorm:"not null;default:false"`
	Created time.Time  `gorm:"autoCreateTime"`
	User    *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (ActivationTokenModel) TableName() string { return "activation_tokens" }

// SavedItemModel is a shopping list row.
type SavedItemModel struct {
	ID     int64      `gorm:"primaryKey;autoIncrement"`
	Item   string     `gorm:"type:varchar(100);not null"`
	Size   string     `gorm:"type:text"`
	UserID *int64     `gorm:"index"`
	User   *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (SavedItemModel) TableName() string { return "saved_items" }

// CommentModel is a comment on a user recipe.
type CommentModel struct {
	ID            int64            `gorm:"primaryKey;autoIncrement"`
	Content       string           `gorm:"type:text;not null"`
	CreatedAt     time.Time        `gorm:"autoCreateTime"`
	UserID        *int64           `gorm:"index"`
	UserRecipesID *int64           `gorm:"column:user_recipes_id;index"`
	User          *UserModel       `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	UserRecipe    *UserRecipeModel `gorm:"foreignKey:UserRecipesID;constraint:OnDelete:SET NULL"`
}

func (CommentModel) TableName() string { return "comments" }

// ReviewModel is a review of a catalog recipe.
type ReviewModel struct {
	ID        int64        `gorm:"primaryKey;autoIncrement"`
	Content   string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
	UserID    *int64       `gorm:"index"`
	RecipesID *int64       `gorm:"column:recipes_id;index"`
	User      *UserModel   `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Recipe    *RecipeModel `gorm:"foreignKey:RecipesID;constraint:OnDelete:SET NULL"`
}

func (ReviewModel) TableName() string { return "reviews" }

// MessageModel is a direct message.
type MessageModel struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	Content        string     `gorm:"type:text;not null"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	SenderUserID   *int64     `gorm:"index"`
	ReceiverUserID *int64     `gorm:"index"`
	Sender         *UserModel `gorm:"foreignKey:SenderUserID;constraint:OnDelete:SET NULL"`
	Receiver       *UserModel `gorm:"foreignKey:ReceiverUserID;constraint:OnDelete:SET NULL"`
}

func (MessageModel) TableName() string { return "messages" }

// UserFollowModel is a follower edge with a composite key.
type UserFollowModel struct {
	FollowerUserID int64      `gorm:"primaryKey;autoIncrement:false"`
	FolloweeUserID int64      `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	Follower       *UserModel `gorm:"foreignKey:FollowerUserID;constraint:OnDelete:CASCADE"`
	Followee       *UserModel `gorm:"foreignKey:FolloweeUserID;constraint:OnDelete:CASCADE"`
}

func (UserFollowModel) TableName() string { return "user_follows" }

// AllModels lists every model in dependency order, for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&RecipeModel{},
		&UserRecipeModel{},
		&ImageModel{},
		&SavedRecipeModel{},
		&SavedUserRecipeModel{},
		&TokenModel{},
		&PasswordResetTokenModel{},
		&ActivationTokenModel{},
		&SavedItemModel{},
		&CommentModel{},
		&ReviewModel{},
		&MessageModel{},
		&UserFollowModel{},
	}
}
