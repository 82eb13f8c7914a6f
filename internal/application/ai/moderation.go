package ai

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"go.uber.org/zap"

	domain "github.com/foodisave/backend/internal/domain/ai"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgUnsafeImage  = "Bilden innehåller innehåll som inte är lämpligt för arbete."
	msgEmptyImage   = "Bildfilen är tom."
	msgInvalidImage = "Ogiltig bildfil."
	msgUnsupported  = "Ogiltig filtyp. Endast JPEG, PNG och GIF stöds."
	msgClassifier   = "Oväntat fel vid bildanalys"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ModerationGate classifies every user image before it is stored or sent to the model.
type ModerationGate struct {
	classifier  outbound.ImageClassifier
	unsafeLabel string
	metrics     outbound.BusinessMetrics
	logger      *zap.Logger
}

func NewModerationGate(classifier outbound.ImageClassifier, unsafeLabel string, metrics outbound.BusinessMetrics, logger *zap.Logger) *ModerationGate {
	if unsafeLabel == "" {
		unsafeLabel = "nsfw"
	}
	return &ModerationGate{
		classifier:  classifier,
		unsafeLabel: unsafeLabel,
		metrics:     metrics,
		logger:      logger.Named("moderation"),
	}
}

// Inspect validates and classifies data without rejecting unsafe images.
func (g *ModerationGate) Inspect(ctx context.Context, fileName string, data []byte) (domain.Verdict, error) {
	if len(data) == 0 {
		return domain.Verdict{}, apperrors.NewBadRequestError(msgEmptyImage)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return domain.Verdict{}, apperrors.NewBadRequestError(msgInvalidImage).WithDetails(err.Error())
	}

	predictions, err := g.classifier.Classify(ctx, data)
	if err != nil {
		g.logger.Error("Image classification failed", zap.String("file_name", fileName), zap.Error(err))
		switch {
		case errors.Is(err, domain.ErrEmptyImage):
			return domain.Verdict{}, apperrors.NewBadRequestError(msgEmptyImage)
		case errors.Is(err, domain.ErrUpstream):
			return domain.Verdict{}, apperrors.NewBadGatewayError(msgClassifier, err)
		default:
			return domain.Verdict{}, apperrors.NewInternalError(msgClassifier).WithCause(err)
		}
	}

	verdict, err := domain.Evaluate(predictions, g.unsafeLabel)
	if err != nil {
		return domain.Verdict{}, apperrors.NewInternalError(msgClassifier).WithCause(err)
	}
	verdict.FileName = fileName
	g.metrics.ModerationVerdict(verdict.IsNSFW)
	return verdict, nil
}

// Check rejects unsafe images with a 400.
func (g *ModerationGate) Check(ctx context.Context, fileName string, data []byte) (domain.Verdict, error) {
	verdict, err := g.Inspect(ctx, fileName, data)
	if err != nil {
		return verdict, err
	}
	if verdict.IsNSFW {
		g.logger.Info("Unsafe image rejected",
			zap.String("file_name", fileName),
			zap.Float64("confidence", verdict.ConfidencePercentage),
		)
		return verdict, apperrors.NewBadRequestError(msgUnsafeImage).WithCause(domain.ErrUnsafeImage)
	}
	return verdict, nil
}

// SniffImageType returns the detected MIME type of data, or an error for anything other
// than JPEG, PNG or GIF.
func SniffImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.NewBadRequestError(msgEmptyImage).WithCause(domain.ErrEmptyImage)
	}
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return "", apperrors.NewBadRequestError(msgUnsupported).WithCause(domain.ErrUnsupportedImage)
	}
	return contentType, nil
}

// Extension returns the file extension used for a supported MIME type.
func Extension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}
