package moderation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/infrastructure/config"
)

func TestClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("imagebytes"), body)
		_, _ = w.Write([]byte(`[{"label":"normal","score":0.9},{"label":"nsfw","score":0.1}]`))
	}))
	defer srv.Close()

	c := NewClient(config.ModerationConfig{Endpoint: srv.URL, Token: "hf-token", Timeout: time.Second}, zaptest.NewLogger(t))
	preds, err := c.Classify(context.Background(), []byte("imagebytes"))

	require.NoError(t, err)
	assert.Equal(t, []ai.Prediction{{Label: "normal", Score: 0.9}, {Label: "nsfw", Score: 0.1}}, preds)
}

func TestClient_ClassifyEmptyImage(t *testing.T) {
	c := NewClient(config.ModerationConfig{Endpoint: "http://unused"}, zaptest.NewLogger(t))

	_, err := c.Classify(context.Background(), nil)

	assert.ErrorIs(t, err, ai.ErrEmptyImage)
}

func TestClient_ClassifyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	c := NewClient(config.ModerationConfig{Endpoint: srv.URL, Timeout: time.Second}, zaptest.NewLogger(t))
	_, err := c.Classify(context.Background(), []byte("x"))

	assert.Error(t, err)
}
