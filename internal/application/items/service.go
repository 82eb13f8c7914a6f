// Package items implements the shopping list use cases.
package items

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgNoItems     = "Inga sparade varor hittades"
	msgItemMissing = "Varan hittades inte"
)

// Service manages the caller's saved items.
type Service struct {
	repo   outbound.SavedItemRepository
	logger *zap.Logger
}

func NewService(repo outbound.SavedItemRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("items-service")}
}

var _ inbound.ItemService = (*Service)(nil)

// Create stores an item owned by the caller.
func (s *Service) Create(ctx context.Context, caller inbound.Caller, item *items.SavedItem) (*items.SavedItem, error) {
	item.ID = 0
	item.UserID = &caller.UserID
	if err := item.Validate(); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, apperrors.NewDatabaseError("create saved item", err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, caller inbound.Caller) ([]*items.SavedItem, error) {
	list, err := s.repo.FindByUser(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list saved items", err)
	}
	if len(list) == 0 {
		return nil, apperrors.NewNotFoundError(msgNoItems)
	}
	return list, nil
}

// Update changes the non-empty fields of one of the caller's items.
func (s *Service) Update(ctx context.Context, caller inbound.Caller, id int64, update items.Update) (*items.SavedItem, error) {
	item, err := s.repo.FindForUser(ctx, caller.UserID, id)
	if err != nil {
		return nil, notFound(err, "find saved item")
	}
	if err := update.Apply(item); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, notFound(err, "update saved item")
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, caller inbound.Caller, id int64) error {
	if err := s.repo.DeleteForUser(ctx, caller.UserID, id); err != nil {
		return notFound(err, "delete saved item")
	}
	s.logger.Debug("Saved item deleted", zap.Int64("user_id", caller.UserID), zap.Int64("item_id", id))
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, items.ErrNotFound) {
		return apperrors.NewNotFoundError(msgItemMissing)
	}
	return apperrors.NewDatabaseError(op, err)
}
