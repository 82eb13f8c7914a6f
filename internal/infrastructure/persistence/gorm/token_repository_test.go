package gorm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodisave/backend/internal/domain/user"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/test/testutils"
)

func TestTokenRepository_SingleUse(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 7).User(t)
	repo := gormrepo.NewTokenRepository(db)
	ctx := context.Background()

	for _, kind := range []user.TokenKind{user.TokenPasswordReset, user.TokenActivation} {
		t.Run(string(kind), func(t *testing.T) {
			tok := &user.Token{Kind: kind, Value: "secret-" + string(kind), UserID: u.ID}
			require.NoError(t, repo.Create(ctx, tok))
			assert.NotZero(t, tok.ID)
			assert.False(t, tok.CreatedAt.IsZero())

			require.NoError(t, repo.MarkUsed(ctx, kind, tok.Value))
			assert.ErrorIs(t, repo.MarkUsed(ctx, kind, tok.Value), user.ErrTokenInvalid)

			found, err := repo.Find(ctx, kind, tok.Value)
			require.NoError(t, err)
			assert.True(t, found.Used)
		})
	}
}

func TestTokenRepository_Sessions(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 8).User(t)
	repo := gormrepo.NewTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &user.Token{Kind: user.TokenSession, Value: "jti-1", UserID: u.ID}))

	found, err := repo.Find(ctx, user.TokenSession, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.UserID)

	assert.Error(t, repo.MarkUsed(ctx, user.TokenSession, "jti-1"), "sessions are not single use")

	require.NoError(t, repo.Delete(ctx, user.TokenSession, "jti-1"))
	_, err = repo.Find(ctx, user.TokenSession, "jti-1")
	assert.ErrorIs(t, err, user.ErrTokenInvalid)
}

func TestTokenRepository_CascadeOnUserDelete(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	u := testutils.NewFactory(db, 9).User(t)
	tokens := gormrepo.NewTokenRepository(db)
	users := gormrepo.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, tokens.Create(ctx, &user.Token{Kind: user.TokenSession, Value: "jti-2", UserID: u.ID}))
	require.NoError(t, users.Delete(ctx, u.ID))

	_, err := tokens.Find(ctx, user.TokenSession, "jti-2")
	assert.ErrorIs(t, err, user.ErrTokenInvalid)
}
