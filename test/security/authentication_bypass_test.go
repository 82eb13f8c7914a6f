//go:build security

// Package security checks a running API for authentication bypasses.
package security

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set FOODISAVE_BASE_URL to target another instance.
const defaultBaseURL = "http://localhost:8000"

var protectedRoutes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/v1/recipe/saved"},
	{http.MethodGet, "/v1/saved/recipe"},
	{http.MethodPost, "/v1/user/recipe"},
	{http.MethodPost, "/v1/ai/recipe"},
	{http.MethodPatch, "/v1/user/recipe/update/1"},
	{http.MethodDelete, "/v1/user/recipe/delete/1"},
	{http.MethodPost, "/v1/upload-image"},
	{http.MethodPost, "/v1/chat"},
	{http.MethodPost, "/v1/save-bought-items"},
	{http.MethodPost, "/v1/suggest_recipe_from_image"},
	{http.MethodGet, "/v1/saved-items"},
	{http.MethodGet, "/v1/me"},
	{http.MethodGet, "/v1/user"},
	{http.MethodPut, "/v1/admin/profile/1"},
	{http.MethodDelete, "/v1/user"},
	{http.MethodPost, "/v1/messages"},
}

func baseURL() string {
	if u := os.Getenv("FOODISAVE_BASE_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

func requireServer(t *testing.T, client *http.Client) {
	t.Helper()
	resp, err := client.Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("server not running at %s: %v", baseURL(), err)
	}
	resp.Body.Close()
}

// forge signs claims shaped like a real access token.
func forge(t *testing.T, method jwt.SigningMethod, key interface{}, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{}
	registered := jwt.RegisteredClaims{
		Issuer:    "foodisave",
		Subject:   strconv.Itoa(1),
		Audience:  []string{"foodisave-api"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	if mutate != nil {
		mutate(&registered)
	}
	claims["iss"] = registered.Issuer
	claims["sub"] = registered.Subject
	claims["aud"] = registered.Audience
	claims["exp"] = registered.ExpiresAt.Unix()
	claims["iat"] = registered.IssuedAt.Unix()
	claims["jti"] = registered.ID
	claims["is_admin"] = true

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestProtectedRoutesRejectAnonymousCalls(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	requireServer(t, client)

	for _, route := range protectedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req, err := http.NewRequest(route.method, baseURL()+route.path, strings.NewReader("{}"))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestForgedTokensAreRejected(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	requireServer(t, client)

	tokens := map[string]string{
		"alg none":     forge(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, nil),
		"wrong secret": forge(t, jwt.SigningMethodHS256, []byte("guessed-secret"), nil),
		"expired": forge(t, jwt.SigningMethodHS256, []byte("guessed-secret"), func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}),
		"garbage": "not.a.jwt",
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, baseURL()+"/v1/me", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	requireServer(t, client)

	resp, err := client.Get(baseURL() + "/v1/random/recipe")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
