package recipe_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	aiapp "github.com/foodisave/backend/internal/application/ai"
	recipeapp "github.com/foodisave/backend/internal/application/recipe"
	"github.com/foodisave/backend/internal/domain/recipe"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/internal/infrastructure/storage"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	"github.com/foodisave/backend/test/testutils"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	factory     *testutils.Factory
	ledger      outbound.CreditLedger
	storage     *testutils.MemoryStorage
	classifier  *testutils.StubClassifier
	recipes     *recipeapp.RecipeService
	userRecipes *recipeapp.UserRecipeService
	ctx         context.Context
}

func TestRecipeServiceSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

func (s *RecipeServiceTestSuite) SetupTest() {
	t := s.T()
	logger := zaptest.NewLogger(t)
	s.db = testutils.NewSQLiteDB(t)
	s.factory = testutils.NewFactory(s.db, 3)
	s.ledger = gormrepo.NewCreditLedger(s.db)
	s.storage = testutils.NewMemoryStorage()
	s.classifier = testutils.SafeClassifier()
	s.ctx = context.Background()

	tx := gormrepo.NewTransactor(s.db)
	gate := aiapp.NewModerationGate(s.classifier, "nsfw", outbound.NopMetrics{}, logger)
	s.recipes = recipeapp.NewRecipeService(gormrepo.NewRecipeRepository(s.db), s.ledger, tx, outbound.NopMetrics{}, logger)
	s.userRecipes = recipeapp.NewUserRecipeService(
		gormrepo.NewUserRecipeRepository(s.db),
		s.ledger,
		tx,
		gate,
		s.storage,
		storage.ObjectKey,
		"uploads",
		outbound.NopMetrics{},
		logger,
	)
}

func (s *RecipeServiceTestSuite) balance(userID int64) int {
	b, err := s.ledger.Balance(s.ctx, userID)
	s.Require().NoError(err)
	return b
}

func (s *RecipeServiceTestSuite) TestSearch() {
	s.factory.Recipe(s.T(), "Köttbullar", "köttfärs, lök, ägg")

	_, err := s.recipes.Search(s.ctx, recipe.SearchQuery{Query: "lasagne"})
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)

	found, err := s.recipes.Search(s.ctx, recipe.SearchQuery{Ingredients: "lök"})
	s.Require().NoError(err)
	s.Len(found, 1)

	later, err := s.recipes.Search(s.ctx, recipe.SearchQuery{Ingredients: "lök", Page: 4})
	s.Require().NoError(err)
	s.Empty(later)

	_, err = s.recipes.Search(s.ctx, recipe.SearchQuery{Page: -1})
	testutils.RequireAppError(s.T(), err, http.StatusBadRequest)
}

func (s *RecipeServiceTestSuite) TestRandom() {
	_, err := s.recipes.Random(s.ctx, "vegetarian")
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)

	s.factory.Recipe(s.T(), "Linsgryta", "röda linser, tomat")
	sample, err := s.recipes.Random(s.ctx, "vegetarian")
	s.Require().NoError(err)
	s.Len(sample, recipe.RandomSampleSize)
}

func (s *RecipeServiceTestSuite) TestSaveGrantsBonusOncePerDay() {
	u := s.factory.User(s.T())
	caller := inbound.Caller{UserID: u.ID}
	first := s.factory.RandomRecipe(s.T(), "ris")
	second := s.factory.RandomRecipe(s.T(), "pasta")

	s.Require().NoError(s.recipes.Save(s.ctx, caller, first.ID))
	s.Equal(100, s.balance(u.ID))

	err := s.recipes.Save(s.ctx, caller, first.ID)
	testutils.RequireAppError(s.T(), err, http.StatusConflict)

	s.Require().NoError(s.recipes.Save(s.ctx, caller, second.ID))
	s.Equal(100, s.balance(u.ID))

	// the user recipe bookmark shares the same daily stamp
	ur := s.factory.UserRecipe(s.T(), s.factory.User(s.T()).ID)
	s.Require().NoError(s.userRecipes.Save(s.ctx, caller, ur.ID))
	s.Equal(100, s.balance(u.ID))

	saved, err := s.recipes.IsSaved(s.ctx, caller, first.ID)
	s.Require().NoError(err)
	s.True(saved)

	list, err := s.recipes.ListSaved(s.ctx, caller)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.recipes.Unsave(s.ctx, caller, first.ID))
	err = s.recipes.Unsave(s.ctx, caller, first.ID)
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)
}

func (s *RecipeServiceTestSuite) TestSaveMissingRecipeGrantsNothing() {
	u := s.factory.User(s.T())
	err := s.recipes.Save(s.ctx, inbound.Caller{UserID: u.ID}, 4242)
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)
	s.Equal(99, s.balance(u.ID))
}

func (s *RecipeServiceTestSuite) TestUserRecipeOwnership() {
	owner := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	stranger := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	admin := inbound.Caller{UserID: s.factory.User(s.T(), testutils.WithAdmin()).ID, IsAdmin: true}

	someoneElse := stranger.UserID
	created, err := s.userRecipes.Create(s.ctx, owner, &recipe.UserRecipe{
		Name:        "Pannkakor",
		Ingredients: "mjöl, mjölk, ägg",
		UserID:      &someoneElse,
	})
	s.Require().NoError(err)
	s.Equal(owner.UserID, *created.UserID)
	s.Equal(1, created.Servings)

	_, err = s.userRecipes.Create(s.ctx, owner, &recipe.UserRecipe{Name: "  "})
	testutils.RequireAppError(s.T(), err, http.StatusBadRequest)

	name := "Tunna pannkakor"
	_, err = s.userRecipes.Update(s.ctx, stranger, created.ID, recipe.UserRecipePatch{Name: &name})
	testutils.RequireAppError(s.T(), err, http.StatusForbidden)

	updated, err := s.userRecipes.Update(s.ctx, admin, created.ID, recipe.UserRecipePatch{Name: &name})
	s.Require().NoError(err)
	s.Equal(name, updated.Name)

	list, err := s.userRecipes.ListByUser(s.ctx, owner.UserID)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.userRecipes.ListByUser(s.ctx, stranger.UserID)
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)

	err = s.userRecipes.Delete(s.ctx, stranger, created.ID)
	testutils.RequireAppError(s.T(), err, http.StatusForbidden)
	s.Require().NoError(s.userRecipes.Delete(s.ctx, owner, created.ID))
	err = s.userRecipes.Delete(s.ctx, owner, created.ID)
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)
}

func (s *RecipeServiceTestSuite) TestImageUploadAndAccess() {
	owner := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	stranger := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	ur := s.factory.UserRecipe(s.T(), owner.UserID)
	data := testutils.PNG(s.T())

	_, err := s.userRecipes.OpenImage(s.ctx, owner, ur.ID)
	testutils.RequireAppError(s.T(), err, http.StatusNotFound)

	uploaded, err := s.userRecipes.UploadImage(s.ctx, owner, ur.ID, inbound.ImageUpload{FileName: "tallrik.png", Data: data})
	s.Require().NoError(err)
	s.Equal(recipeapp.ImagePath(ur.ID), uploaded.ImageURL)
	s.NotZero(uploaded.ImageID)
	s.Equal(1, s.classifier.Calls)

	for link, ct := range s.storage.Types {
		s.True(strings.HasPrefix(link, "https://bucket.s3.amazonaws.com/uploads/"))
		s.True(strings.HasSuffix(link, ".png"))
		s.Equal("image/png", ct)
	}

	stream, err := s.userRecipes.OpenImage(s.ctx, owner, ur.ID)
	s.Require().NoError(err)
	defer stream.Body.Close()
	body, err := io.ReadAll(stream.Body)
	s.Require().NoError(err)
	s.Equal(data, body)
	s.Equal("image/png", stream.ContentType)

	_, err = s.userRecipes.OpenImage(s.ctx, stranger, ur.ID)
	testutils.RequireAppError(s.T(), err, http.StatusForbidden)

	_, err = s.userRecipes.UploadImage(s.ctx, stranger, ur.ID, inbound.ImageUpload{FileName: "x.png", Data: data})
	testutils.RequireAppError(s.T(), err, http.StatusForbidden)
}

func (s *RecipeServiceTestSuite) TestImageUploadRejections() {
	owner := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	ur := s.factory.UserRecipe(s.T(), owner.UserID)

	_, err := s.userRecipes.UploadImage(s.ctx, owner, ur.ID, inbound.ImageUpload{FileName: "a.txt", Data: []byte("plain text")})
	testutils.RequireAppError(s.T(), err, http.StatusBadRequest)

	s.classifier.Label = "nsfw"
	_, err = s.userRecipes.UploadImage(s.ctx, owner, ur.ID, inbound.ImageUpload{FileName: "b.png", Data: testutils.PNG(s.T())})
	testutils.RequireAppError(s.T(), err, http.StatusBadRequest)
	s.Empty(s.storage.Objects)
}

func (s *RecipeServiceTestSuite) TestImageUploadRemovesObjectWhenRecordFails() {
	owner := inbound.Caller{UserID: s.factory.User(s.T()).ID}
	ur := s.factory.UserRecipe(s.T(), owner.UserID)
	s.Require().NoError(s.db.Migrator().DropTable("images"))

	_, err := s.userRecipes.UploadImage(s.ctx, owner, ur.ID, inbound.ImageUpload{FileName: "c.png", Data: testutils.PNG(s.T())})

	testutils.RequireAppError(s.T(), err, http.StatusInternalServerError)
	s.Empty(s.storage.Objects)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", recipeapp.ContentTypeFor("https://b/x/a.PNG"))
	assert.Equal(t, "image/jpeg", recipeapp.ContentTypeFor("https://b/x/a.jpeg"))
	assert.Equal(t, "image/gif", recipeapp.ContentTypeFor("a.gif"))
	assert.Equal(t, "application/octet-stream", recipeapp.ContentTypeFor("a"))
	require.Equal(t, "/v1/images/7", recipeapp.ImagePath(7))
}
