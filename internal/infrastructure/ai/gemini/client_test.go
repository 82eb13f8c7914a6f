package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/infrastructure/config"
)

func testConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		Model:           "gemini-2.0-flash",
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
}

func TestClient_GenerateSendsPromptAndImage(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"recipes\":"},{"text":"[]}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zaptest.NewLogger(t))
	text, err := c.Generate(context.Background(), "hej", &ai.Attachment{MIMEType: "image/png", Data: []byte{1, 2, 3}})

	require.NoError(t, err)
	assert.Equal(t, `{"recipes":[]}`, text)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "hej", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "AQID", got.Contents[0].Parts[1].InlineData.Data)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zaptest.NewLogger(t))
	_, err := c.Generate(context.Background(), "hej", nil)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "API key not valid"))
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var states []float64
	c := NewClient(testConfig(srv.URL), zaptest.NewLogger(t),
		WithStateObserver(func(_ string, s float64) { states = append(states, s) }))

	var err error
	for i := 0; i < 3; i++ {
		_, err = c.Generate(context.Background(), "hej", nil)
		require.Error(t, err)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, []float64{2}, states)
	assert.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zaptest.NewLogger(t))
	_, err := c.Generate(context.Background(), "hej", nil)

	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestClient_TransportErrorDoesNotCarryKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	closedURL := srv.URL
	srv.Close()

	cfg := testConfig(closedURL)
	cfg.APIKey = "SUPER-SECRET-KEY"
	_, err := NewClient(cfg, zaptest.NewLogger(t)).Generate(context.Background(), "hej", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrUpstream)
	assert.NotContains(t, err.Error(), "SUPER-SECRET-KEY")
}
