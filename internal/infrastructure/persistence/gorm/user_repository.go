// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) outbound.UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	model := UserToModel(u)

	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicate(err) {
			return user.ErrEmailTaken
		}
		return err
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	return nil
}

// Update writes the profile columns. Credits are written too so that admin edits land;
// regular credit movements go through the ledger.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	result := conn(ctx, r.db).Model(&UserModel{ID: u.ID}).
		Select("first_name", "last_name", "email", "is_admin", "is_active", "credits", "level").
		Updates(UserToModel(u))
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return user.ErrEmailTaken
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}

	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&UserModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}

	return nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserModel

	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	return ModelToUser(&model), nil
}

// FindByEmail finds a user by email address
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel

	err := conn(ctx, r.db).First(&model, "email = ?", user.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	return ModelToUser(&model), nil
}

// List returns every account ordered by id
func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var models []UserModel

	if err := conn(ctx, r.db).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = ModelToUser(&models[i])
	}
	return users, nil
}

// UpdatePassword replaces the stored hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.updateColumn(ctx, id, "hashed_password", hash)
}

// Activate marks the account active
func (r *UserRepository) Activate(ctx context.Context, id int64) error {
	return r.updateColumn(ctx, id, "is_active", true)
}

func (r *UserRepository) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	result := conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
