package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/infrastructure/config"
)

// AuthServiceTestSuite provides a test suite for AuthService
type AuthServiceTestSuite struct {
	suite.Suite
	authService *AuthService
	hasher      *PasswordHasher
	cfg         config.AuthConfig
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.cfg = config.AuthConfig{
		JWTSecret:      "test-secret-key-for-testing-only-32-bytes",
		AccessTokenTTL: time.Hour,
		BCryptCost:     4,
	}
	suite.authService = NewAuthService(suite.cfg, zaptest.NewLogger(suite.T()))
	suite.hasher = NewPasswordHasher(suite.cfg)
}

func (suite *AuthServiceTestSuite) TestTokenRoundTrip() {
	issued, err := suite.authService.GenerateAccessToken(42, "anna@example.se", true)
	suite.Require().NoError(err)
	suite.NotEmpty(issued.SessionID)

	claims, err := suite.authService.ValidateToken(issued.Token)
	suite.Require().NoError(err)

	id, err := claims.UserID()
	suite.Require().NoError(err)
	suite.Equal(int64(42), id)
	suite.Equal("anna@example.se", claims.Email)
	suite.True(claims.IsAdmin)
	suite.Equal(issued.SessionID, claims.ID)
}

func (suite *AuthServiceTestSuite) TestExpiredToken() {
	issued, err := suite.authService.GenerateAccessToken(1, "a@b.se", false)
	suite.Require().NoError(err)

	suite.authService.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = suite.authService.ValidateToken(issued.Token)
	suite.ErrorIs(err, ErrTokenExpired)
}

func (suite *AuthServiceTestSuite) TestWrongSecret() {
	other := NewAuthService(config.AuthConfig{JWTSecret: "another-secret", AccessTokenTTL: time.Hour}, zaptest.NewLogger(suite.T()))
	issued, err := other.GenerateAccessToken(1, "a@b.se", false)
	suite.Require().NoError(err)

	_, err = suite.authService.ValidateToken(issued.Token)
	suite.ErrorIs(err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestRejectsNoneAlgorithm() {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "1",
		Audience:  []string{audience},
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	_, err = suite.authService.ValidateToken(token)
	suite.ErrorIs(err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestPasswordHashing() {
	hash, err := suite.hasher.HashPassword("hemligt123")
	suite.Require().NoError(err)
	suite.NotEqual("hemligt123", hash)

	ok, err := suite.hasher.VerifyPassword(hash, "hemligt123")
	suite.NoError(err)
	suite.True(ok)

	ok, err = suite.hasher.VerifyPassword(hash, "fel")
	suite.NoError(err)
	suite.False(ok)

	_, err = suite.hasher.VerifyPassword("not-a-hash", "x")
	suite.Error(err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestValidationService(t *testing.T) {
	v := NewValidationService()

	type payload struct {
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8"`
		Ingredients string `form:"ingredients" validate:"ingredient_list"`
	}

	err := v.ValidateStruct(payload{Email: "nope", Password: "kort", Ingredients: "<b>"})
	require.Error(t, err)

	fields := v.GetValidationError(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "ingredients")

	assert.NoError(t, v.ValidateStruct(payload{Email: "anna@example.se", Password: "langtlosen", Ingredients: "ägg, mjölk"}))
}
