package ai

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

// MockCreditLedger is a mock implementation of the credit ledger
type MockCreditLedger struct {
	mock.Mock
}

func (m *MockCreditLedger) Debit(ctx context.Context, userID int64, cost int) (int, error) {
	args := m.Called(ctx, userID, cost)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditLedger) GrantDaily(ctx context.Context, userID int64, bonus user.Bonus, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, bonus, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditLedger) Balance(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockClassifier is a mock implementation of the image classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, img []byte) ([]domain.Prediction, error) {
	args := m.Called(ctx, img)
	if p := args.Get(0); p != nil {
		return p.([]domain.Prediction), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubItems struct {
	outbound.SavedItemRepository
	batches [][]*items.SavedItem
}

func (s *stubItems) CreateBatch(_ context.Context, list []*items.SavedItem) error {
	s.batches = append(s.batches, list)
	return nil
}

type stubRecipes struct {
	outbound.RecipeRepository
	recipe *recipe.Recipe
}

func (s *stubRecipes) FindByID(_ context.Context, id int64) (*recipe.Recipe, error) {
	if s.recipe == nil || s.recipe.ID != id {
		return nil, recipe.ErrNotFound
	}
	return s.recipe, nil
}

// inlineTx runs fn directly; rollback is covered by the repository tests.
type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	service    *Service
	ledger     *MockCreditLedger
	classifier *MockClassifier
	model      *stubModel
	items      *stubItems
}

func newFixture(t *testing.T, answer string) *fixture {
	logger := zaptest.NewLogger(t)
	f := &fixture{
		ledger:     new(MockCreditLedger),
		classifier: new(MockClassifier),
		model:      &stubModel{text: answer},
		items:      &stubItems{},
	}
	gate := NewModerationGate(f.classifier, "nsfw", outbound.NopMetrics{}, logger)
	bridge := NewBridge(f.model, nil, outbound.NopMetrics{}, logger)
	f.service = NewService(
		&stubRecipes{recipe: &recipe.Recipe{ID: 7, Name: "Pannkakor", Ingredients: "mjölk | ägg | mjöl"}},
		f.items, f.ledger, inlineTx{}, bridge, gate,
		config.CreditsConfig{Initial: 99, ImageSuggestion: 2, Chat: 1, BoughtItems: 1},
		outbound.NopMetrics{}, logger,
	)
	return f
}

var caller = inbound.Caller{UserID: 1}

func TestPaidImageRequest_UnsafeImageSpendsNothing(t *testing.T) {
	f := newFixture(t, `{"recipes":[]}`)
	data := pngBytes(t)
	f.classifier.On("Classify", mock.Anything, data).
		Return([]domain.Prediction{{Label: "normal", Score: 0.1}, {Label: "nsfw", Score: 0.9}}, nil)

	_, err := f.service.SuggestFromPlateImage(context.Background(), caller, inbound.ImageUpload{FileName: "a.png", Data: data})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
	f.ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.model.calls)
}

func TestPaidImageRequest_InsufficientCredits(t *testing.T) {
	f := newFixture(t, `{"recipes":[]}`)
	data := pngBytes(t)
	f.classifier.On("Classify", mock.Anything, data).Return([]domain.Prediction{{Label: "normal", Score: 0.99}}, nil)
	f.ledger.On("Debit", mock.Anything, int64(1), 2).Return(0, user.ErrInsufficientCredits)

	_, err := f.service.SuggestFromIngredientsImage(context.Background(), caller, inbound.ImageUpload{FileName: "a.png", Data: data})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodePaymentRequired))
	assert.Equal(t, 0, f.model.calls)
}

func TestPaidImageRequest_Success(t *testing.T) {
	f := newFixture(t, "```json\n{\"recipes\":[{\"name\":\"Omelett\"}]}\n```")
	data := pngBytes(t)
	f.classifier.On("Classify", mock.Anything, data).Return([]domain.Prediction{{Label: "normal", Score: 0.99}}, nil)
	f.ledger.On("Debit", mock.Anything, int64(1), 2).Return(97, nil)

	got, err := f.service.SuggestFromIngredientsImage(context.Background(), caller, inbound.ImageUpload{FileName: "a.png", Data: data})

	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Omelett"}]`, string(got))
	f.ledger.AssertExpectations(t)
}

func TestPaidImageRequest_UnsupportedType(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.service.SuggestFromPlateImage(context.Background(), caller, inbound.ImageUpload{FileName: "a.txt", Data: []byte("hello world")})

	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
	f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestBoughtItemsFromImage_StoresItems(t *testing.T) {
	f := newFixture(t, `{"items":[{"name":"Mjölk","size":"1L"},{"name":"","size":"x"},{"name":"Ägg","size":"6-pack"}]}`)
	data := pngBytes(t)
	f.classifier.On("Classify", mock.Anything, data).Return([]domain.Prediction{{Label: "normal", Score: 0.99}}, nil)
	f.ledger.On("Debit", mock.Anything, int64(1), 1).Return(10, nil)

	_, err := f.service.BoughtItemsFromImage(context.Background(), caller, inbound.ImageUpload{FileName: "kvitto.png", Data: data})

	require.NoError(t, err)
	require.Len(t, f.items.batches, 1)
	require.Len(t, f.items.batches[0], 2)
	assert.Equal(t, "Mjölk", f.items.batches[0][0].Item)
	assert.Equal(t, int64(1), *f.items.batches[0][1].UserID)
}

func TestChat(t *testing.T) {
	t.Run("empty answer falls back", func(t *testing.T) {
		f := newFixture(t, "   ")
		f.ledger.On("Debit", mock.Anything, int64(1), 1).Return(5, nil)

		got, err := f.service.Chat(context.Background(), caller, "<p>Pannkakor</p>", "Hur länge?")

		require.NoError(t, err)
		assert.Equal(t, "Inget svar mottaget.", got)
	})

	t.Run("no credits", func(t *testing.T) {
		f := newFixture(t, "svar")
		f.ledger.On("Debit", mock.Anything, int64(1), 1).Return(0, user.ErrInsufficientCredits)

		_, err := f.service.Chat(context.Background(), caller, "", "Hej")

		assert.True(t, apperrors.Is(err, apperrors.CodePaymentRequired))
		assert.Equal(t, 0, f.model.calls)
	})
}

func TestFreeEndpoints(t *testing.T) {
	t.Run("missing recipe", func(t *testing.T) {
		f := newFixture(t, `{"recipes":[]}`)

		_, err := f.service.SuggestSimilar(context.Background(), 99)

		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})

	t.Run("change ingredients needs a list", func(t *testing.T) {
		f := newFixture(t, `{"recipes":[]}`)

		_, err := f.service.ChangeIngredients(context.Background(), 7, " , ")

		assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
	})

	t.Run("shopping list", func(t *testing.T) {
		f := newFixture(t, `{"recipes":[{"name":"mjölk","amount":"6","unit":"dl"}]}`)

		got, err := f.service.ShoppingList(context.Background(), 7, 6)

		require.NoError(t, err)
		assert.JSONEq(t, `[{"name":"mjölk","amount":"6","unit":"dl"}]`, string(got))
	})
}

func TestModerate_ReportsVerdict(t *testing.T) {
	f := newFixture(t, "")
	data := pngBytes(t)
	f.classifier.On("Classify", mock.Anything, data).Return([]domain.Prediction{{Label: "nsfw", Score: 0.8765}}, nil)

	v, err := f.service.Moderate(context.Background(), inbound.ImageUpload{FileName: "x.png", Data: data})

	require.NoError(t, err)
	assert.True(t, v.IsNSFW)
	assert.Equal(t, 87.7, v.ConfidencePercentage)
	assert.Equal(t, "x.png", v.FileName)
}
