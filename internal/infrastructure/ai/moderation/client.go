// Package moderation posts images to a hosted image classification model.
package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// Client implements outbound.ImageClassifier. The endpoint takes the raw image bytes and
// answers with a list of label scores.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient creates a classifier client. It is constructed once at startup and shared.
func NewClient(cfg config.ModerationConfig, logger *zap.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.Named("moderation"),
	}
}

var _ outbound.ImageClassifier = (*Client)(nil)

// Classify returns the model's predictions for image.
func (c *Client) Classify(ctx context.Context, image []byte) ([]ai.Prediction, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", ai.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: classifier error %d: %s", ai.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var predictions []ai.Prediction
	if err := json.Unmarshal(raw, &predictions); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	if len(predictions) == 0 {
		return nil, ai.ErrNoPredictions
	}

	c.logger.Debug("Image classified", zap.Int("labels", len(predictions)))
	return predictions, nil
}
