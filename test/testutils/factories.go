// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	gormModels "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
)

// Factory inserts realistic rows straight into a test database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewFactory creates a factory with a seeded faker so runs are reproducible.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed)}
}

// UserOption customises a user row before insert.
type UserOption func(*gormModels.UserModel)

// WithCredits sets the starting balance.
func WithCredits(n int) UserOption {
	return func(m *gormModels.UserModel) { m.Credits = n }
}

// WithAdmin marks the user as an administrator.
func WithAdmin() UserOption {
	return func(m *gormModels.UserModel) { m.IsAdmin = true }
}

// Inactive leaves the account unactivated.
func Inactive() UserOption {
	return func(m *gormModels.UserModel) { m.IsActive = false }
}

// WithPasswordHash stores a precomputed hash.
func WithPasswordHash(hash string) UserOption {
	return func(m *gormModels.UserModel) { m.HashedPassword = hash }
}

// WithEmail fixes the address.
func WithEmail(email string) UserOption {
	return func(m *gormModels.UserModel) { m.Email = email }
}

// WithLastRecipeSavedCredit stamps the bookmark bonus column.
func WithLastRecipeSavedCredit(at time.Time) UserOption {
	return func(m *gormModels.UserModel) { m.LastRecipeSavedCredit = &at }
}

// User inserts an active user with 99 credits unless options say otherwise.
func (f *Factory) User(t *testing.T, opts ...UserOption) *gormModels.UserModel {
	t.Helper()
	m := &gormModels.UserModel{
		FirstName:      f.faker.FirstName(),
		LastName:       f.faker.LastName(),
		Email:          f.faker.Email(),
		IsActive:       true,
		Credits:        99,
		HashedPassword: "$2a$04$not.a.real.hash",
		Level:          1,
	}
	for _, opt := range opts {
		opt(m)
	}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

// Recipe inserts a catalog recipe with the given name and ingredient text.
func (f *Factory) Recipe(t *testing.T, name, ingredients string) *gormModels.RecipeModel {
	t.Helper()
	calories := float64(f.faker.Number(200, 900))
	protein := float64(f.faker.Number(5, 60))
	carbs := float64(f.faker.Number(5, 90))
	fat := float64(f.faker.Number(2, 50))
	m := &gormModels.RecipeModel{
		Name:          name,
		Ingredients:   ingredients,
		Calories:      &calories,
		Protein:       &protein,
		Carbohydrates: &carbs,
		Fat:           &fat,
	}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

// RandomRecipe inserts a recipe with a fake name and the given ingredient text.
func (f *Factory) RandomRecipe(t *testing.T, ingredients string) *gormModels.RecipeModel {
	return f.Recipe(t, f.faker.LetterN(12), ingredients)
}

// UserRecipe inserts a user recipe owned by ownerID.
func (f *Factory) UserRecipe(t *testing.T, ownerID int64) *gormModels.UserRecipeModel {
	t.Helper()
	m := &gormModels.UserRecipeModel{
		Name:         f.faker.LetterN(10),
		Descriptions: f.faker.Sentence(8),
		Ingredients:  "2 dl ris | 1 lök",
		Instructions: f.faker.Sentence(12),
		Servings:     2,
		UserID:       &ownerID,
	}
	require.NoError(t, f.db.Create(m).Error)
	return m
}
