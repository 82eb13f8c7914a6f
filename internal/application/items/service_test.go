package items_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	itemsapp "github.com/foodisave/backend/internal/application/items"
	"github.com/foodisave/backend/internal/domain/items"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/test/testutils"
)

func strPtr(s string) *string { return &s }

func TestItemService(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	factory := testutils.NewFactory(db, 11)
	owner := inbound.Caller{UserID: factory.User(t).ID}
	other := inbound.Caller{UserID: factory.User(t).ID}
	service := itemsapp.NewService(gormrepo.NewSavedItemRepository(db), zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := service.List(ctx, owner)
	testutils.RequireAppError(t, err, http.StatusNotFound)

	_, err = service.Create(ctx, owner, &items.SavedItem{Item: "   "})
	testutils.RequireAppError(t, err, http.StatusBadRequest)

	created, err := service.Create(ctx, owner, &items.SavedItem{Item: " Mjölk ", Size: "1 l"})
	require.NoError(t, err)
	assert.Equal(t, "Mjölk", created.Item)
	require.NotNil(t, created.UserID)
	assert.Equal(t, owner.UserID, *created.UserID)

	t.Run("update keeps empty fields", func(t *testing.T) {
		updated, err := service.Update(ctx, owner, created.ID, items.Update{Item: strPtr(""), Size: strPtr("2 l")})
		require.NoError(t, err)
		assert.Equal(t, "Mjölk", updated.Item)
		assert.Equal(t, "2 l", updated.Size)
	})

	t.Run("other users cannot touch the item", func(t *testing.T) {
		_, err := service.Update(ctx, other, created.ID, items.Update{Size: strPtr("3 l")})
		testutils.RequireAppError(t, err, http.StatusNotFound)

		err = service.Delete(ctx, other, created.ID)
		testutils.RequireAppError(t, err, http.StatusNotFound)
	})

	list, err := service.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, service.Delete(ctx, owner, created.ID))
	err = service.Delete(ctx, owner, created.ID)
	testutils.RequireAppError(t, err, http.StatusNotFound)
}
