// Package ai defines the values exchanged with the generative model and the image
// classifier, and the rule that turns classifier output into a moderation verdict.
package ai

import (
	"errors"
	"math"
)

// Response keys the bridge expects at the top level of the model's JSON.
const (
	KeyRecipes = "recipes"
	KeyItems   = "items"
)

var (
	ErrEmptyImage       = errors.New("empty image file provided")
	ErrNoPredictions    = errors.New("classifier returned no predictions")
	ErrMissingKey       = errors.New("response is missing the expected key")
	ErrUnsafeImage      = errors.New("image flagged as unsafe")
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrUpstream marks failures of a remote model: transport errors and non-2xx answers.
	ErrUpstream = errors.New("upstream model failure")
	// ErrUnavailable means the model is not being called at all, e.g. while its breaker is open.
	ErrUnavailable = errors.New("model temporarily unavailable")
)

// Attachment is an image sent along with a prompt.
type Attachment struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Prediction is one (label, score) pair from the classifier.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Verdict is the outcome of the moderation gate.
type Verdict struct {
	IsNSFW               bool    `json:"is_nsfw"`
	ConfidencePercentage float64 `json:"confidence_percentage"`
	FileName             string  `json:"file_name"`
}

// Evaluate picks the highest scoring prediction. The image is flagged when that label equals
// unsafeLabel; confidence is the score as a percentage rounded to one decimal.
func Evaluate(predictions []Prediction, unsafeLabel string) (Verdict, error) {
	if len(predictions) == 0 {
		return Verdict{}, ErrNoPredictions
	}
	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return Verdict{
		IsNSFW:               best.Label == unsafeLabel,
		ConfidencePercentage: math.Round(best.Score*1000) / 10,
	}, nil
}
