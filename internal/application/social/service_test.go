package social_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	socialapp "github.com/foodisave/backend/internal/application/social"
	"github.com/foodisave/backend/internal/domain/social"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/test/testutils"
)

func newService(t *testing.T) (*socialapp.Service, *testutils.Factory) {
	db := testutils.NewSQLiteDB(t)
	service := socialapp.NewService(
		gormrepo.NewSocialRepository(db),
		gormrepo.NewUserRepository(db),
		gormrepo.NewRecipeRepository(db),
		gormrepo.NewUserRecipeRepository(db),
		zaptest.NewLogger(t),
	)
	return service, testutils.NewFactory(db, 21)
}

func TestFollow(t *testing.T) {
	service, factory := newService(t)
	ctx := context.Background()
	alice := inbound.Caller{UserID: factory.User(t).ID}
	bob := factory.User(t)

	_, err := service.Follow(ctx, alice, alice.UserID)
	testutils.RequireAppError(t, err, http.StatusBadRequest)

	_, err = service.Follow(ctx, alice, 9999)
	testutils.RequireAppError(t, err, http.StatusNotFound)

	f, err := service.Follow(ctx, alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, f.FolloweeID)

	_, err = service.Follow(ctx, alice, bob.ID)
	testutils.RequireAppError(t, err, http.StatusConflict)

	followers, err := service.Followers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.UserID, followers[0].FollowerID)

	following, err := service.Following(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, following, 1)

	require.NoError(t, service.Unfollow(ctx, alice, bob.ID))
	err = service.Unfollow(ctx, alice, bob.ID)
	testutils.RequireAppError(t, err, http.StatusNotFound)
}

func TestCommentsAndReviews(t *testing.T) {
	service, factory := newService(t)
	ctx := context.Background()
	author := factory.User(t)
	caller := inbound.Caller{UserID: factory.User(t).ID}
	ur := factory.UserRecipe(t, author.ID)
	rec := factory.Recipe(t, "Ärtsoppa", "gula ärtor, fläsk")

	_, err := service.Comment(ctx, caller, ur.ID, "  ")
	testutils.RequireAppError(t, err, http.StatusBadRequest)

	_, err = service.Comment(ctx, caller, ur.ID, strings.Repeat("a", social.MaxContentLength+1))
	testutils.RequireAppError(t, err, http.StatusBadRequest)

	_, err = service.Comment(ctx, caller, 9999, "Gott!")
	testutils.RequireAppError(t, err, http.StatusNotFound)

	c, err := service.Comment(ctx, caller, ur.ID, " Gott! ")
	require.NoError(t, err)
	assert.Equal(t, "Gott!", c.Content)

	comments, err := service.Comments(ctx, ur.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = service.Review(ctx, caller, rec.ID, "Klassiker")
	require.NoError(t, err)
	reviews, err := service.Reviews(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, caller.UserID, *reviews[0].UserID)
}

func TestMessages(t *testing.T) {
	service, factory := newService(t)
	ctx := context.Background()
	alice := inbound.Caller{UserID: factory.User(t).ID}
	bob := inbound.Caller{UserID: factory.User(t).ID}

	_, err := service.SendMessage(ctx, alice, alice.UserID, "hej")
	testutils.RequireAppError(t, err, http.StatusBadRequest)

	_, err = service.SendMessage(ctx, alice, bob.UserID, "hej")
	require.NoError(t, err)
	_, err = service.SendMessage(ctx, bob, alice.UserID, "hej själv")
	require.NoError(t, err)

	inbox, err := service.Messages(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "hej själv", inbox[0].Content)
}
