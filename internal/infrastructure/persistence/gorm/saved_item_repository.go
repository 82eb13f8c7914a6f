package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// SavedItemRepository implements outbound.SavedItemRepository using GORM
type SavedItemRepository struct {
	db *gorm.DB
}

// NewSavedItemRepository creates a new saved item repository
func NewSavedItemRepository(db *gorm.DB) outbound.SavedItemRepository {
	return &SavedItemRepository{db: db}
}

// Create inserts one item.
func (r *SavedItemRepository) Create(ctx context.Context, item *items.SavedItem) error {
	model := &SavedItemModel{Item: item.Item, Size: item.Size, UserID: item.UserID}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	item.ID = model.ID
	return nil
}

// CreateBatch inserts all items in one statement.
func (r *SavedItemRepository) CreateBatch(ctx context.Context, list []*items.SavedItem) error {
	if len(list) == 0 {
		return nil
	}
	models := make([]SavedItemModel, len(list))
	for i, item := range list {
		models[i] = SavedItemModel{Item: item.Item, Size: item.Size, UserID: item.UserID}
	}
	if err := conn(ctx, r.db).Create(&models).Error; err != nil {
		return err
	}
	for i := range models {
		list[i].ID = models[i].ID
	}
	return nil
}

// FindByUser lists a user's items in insertion order.
func (r *SavedItemRepository) FindByUser(ctx context.Context, userID int64) ([]*items.SavedItem, error) {
	var models []SavedItemModel
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*items.SavedItem, len(models))
	for i := range models {
		out[i] = modelToSavedItem(&models[i])
	}
	return out, nil
}

// FindForUser returns an item only when it belongs to userID.
func (r *SavedItemRepository) FindForUser(ctx context.Context, userID, id int64) (*items.SavedItem, error) {
	var model SavedItemModel
	err := conn(ctx, r.db).First(&model, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, items.ErrNotFound
		}
		return nil, err
	}
	return modelToSavedItem(&model), nil
}

// Update writes item and size.
func (r *SavedItemRepository) Update(ctx context.Context, item *items.SavedItem) error {
	result := conn(ctx, r.db).Model(&SavedItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{"item": item.Item, "size": item.Size})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return items.ErrNotFound
	}
	return nil
}

// DeleteForUser removes an item owned by userID.
func (r *SavedItemRepository) DeleteForUser(ctx context.Context, userID, id int64) error {
	result := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&SavedItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return items.ErrNotFound
	}
	return nil
}
