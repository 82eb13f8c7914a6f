// Package ai implements the generative endpoints: prompt construction, the paid request
// flow and the moderation gate in front of every image.
package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	domain "github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgUnparsable = "Misslyckades att tolka svaret från AI som JSON"
	msgUpstream   = "Fel vid API-förfrågan"
)

// Request is one call through the bridge.
type Request struct {
	// Operation names the endpoint in logs and metrics.
	Operation string
	Prompt    string
	// Key is the top-level field returned to the caller.
	Key   string
	Image *domain.Attachment
}

// Bridge sends a prompt to the model and extracts one key of the JSON answer. Answers are
// cached only after they have been accepted.
type Bridge struct {
	model   outbound.GenerativeModel
	cache   outbound.ResponseCache
	metrics outbound.BusinessMetrics
	logger  *zap.Logger
}

// NewBridge wires the model. cache may be nil.
func NewBridge(model outbound.GenerativeModel, cache outbound.ResponseCache, metrics outbound.BusinessMetrics, logger *zap.Logger) *Bridge {
	return &Bridge{model: model, cache: cache, metrics: metrics, logger: logger.Named("ai-bridge")}
}

// unusableAnswer is a model answer that could not be turned into the requested key.
type unusableAnswer struct {
	err    error
	length int
}

func (e *unusableAnswer) Error() string { return e.err.Error() }
func (e *unusableAnswer) Unwrap() error { return e.err }

// Run calls the model and returns the raw JSON under req.Key. Empty lists are not cached.
func (b *Bridge) Run(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	result, err := b.remember(ctx, cacheKey(req.Key, req.Prompt, req.Image), func(ctx context.Context) ([]byte, bool, error) {
		text, err := b.model.Generate(ctx, req.Prompt, req.Image)
		if err != nil {
			return nil, false, err
		}
		value, err := ExtractKey(text, req.Key)
		if err != nil {
			return nil, false, &unusableAnswer{err: err, length: len(text)}
		}
		return value, !isEmptyList(value), nil
	})

	var bad *unusableAnswer
	switch {
	case errors.As(err, &bad):
		b.metrics.AIRequest(req.Operation, "invalid_response", time.Since(start))
		b.logger.Warn("Unusable model response",
			zap.String("operation", req.Operation),
			zap.Int("length", bad.length),
			zap.Error(bad.err),
		)
		return nil, apperrors.NewBadGatewayError(msgUnparsable, bad.err).WithDetails(bad.err.Error())
	case err != nil:
		b.metrics.AIRequest(req.Operation, "upstream_error", time.Since(start))
		b.logger.Error("Model call failed", zap.String("operation", req.Operation), zap.Error(err))
		return nil, upstreamError(err)
	}

	b.metrics.AIRequest(req.Operation, "ok", time.Since(start))
	return result, nil
}

// Text calls the model for a free text answer.
func (b *Bridge) Text(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	text, err := b.remember(ctx, cacheKey("text", prompt, nil), func(ctx context.Context) ([]byte, bool, error) {
		text, err := b.model.Generate(ctx, prompt, nil)
		if err != nil {
			return nil, false, err
		}
		text = strings.TrimSpace(text)
		return []byte(text), text != "", nil
	})
	if err != nil {
		b.metrics.AIRequest(operation, "upstream_error", time.Since(start))
		b.logger.Error("Model call failed", zap.String("operation", operation), zap.Error(err))
		return "", upstreamError(err)
	}
	b.metrics.AIRequest(operation, "ok", time.Since(start))
	return string(text), nil
}

func (b *Bridge) remember(ctx context.Context, key string, fill outbound.FillFunc) ([]byte, error) {
	if b.cache == nil {
		value, _, err := fill(ctx)
		return value, err
	}
	return b.cache.Remember(ctx, key, fill)
}

// cacheKey hashes the answer key, the prompt and the image bytes.
func cacheKey(answerKey, prompt string, image *domain.Attachment) string {
	h := sha256.New()
	for _, part := range []string{answerKey, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if image != nil {
		h.Write([]byte(image.MIMEType))
		h.Write([]byte{0})
		h.Write(image.Data)
	}
	return "ai:" + hex.EncodeToString(h.Sum(nil))
}

// ExtractKey cleans a model answer and returns the value under key. An empty answer is an
// empty list; text that is not a JSON object, or lacks key, is an error.
func ExtractKey(text, key string) (json.RawMessage, error) {
	cleaned := CleanResponse(text)
	if cleaned == "" {
		return json.RawMessage("[]"), nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, err
	}
	value, ok := payload[key]
	if !ok {
		return nil, domain.ErrMissingKey
	}
	return value, nil
}

// CleanResponse strips a markdown code fence, with or without a language tag, and
// trailing commas.
func CleanResponse(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = strings.TrimSuffix(strings.TrimSpace(rest), "```")
		if tag, body, found := strings.Cut(s, "\n"); found && isFenceTag(tag) {
			s = body
		}
	}
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ",")
}

// isFenceTag reports whether line is a language tag such as "json".
func isFenceTag(line string) bool {
	for _, r := range strings.TrimSpace(line) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

func upstreamError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, domain.ErrUnavailable):
		return apperrors.NewServiceUnavailableError("ai model", err)
	}
	return apperrors.NewBadGatewayError(msgUpstream, err)
}

// isEmptyList reports whether raw is the JSON literal [].
func isEmptyList(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("[]"))
}
