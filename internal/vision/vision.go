package vision

import (
	"context"
	"fmt"
	"io"
)

// MultiItemPrompt asks an image model for a multi-item payload.
const MultiItemPrompt = `You are a food vision specialist. Identify every food in this photo.
Count similar items together. Respond with JSON only: an array where each element is
{"count": number, "name": string, "portionSize": string describing ONE item including grams,
 "nutritionPerItem": {"calories": number, "protein": number, "carbs": number, "fat": number},
 "totalNutrition": {"calories": number, "protein": number, "carbs": number, "fat": number}}.
Protein, carbs and fat are in grams. Use [] if no food is visible.`

// singleEstimatePrompt asks a text model for a single-item payload.
const singleEstimatePrompt = `You are a nutritionist assistant. Estimate the meal described below.
Respond with JSON only:
{"name": string, "estimatedSize": number of grams, "calories": number, "protein": number,
 "carbs": number, "fat": number, "canEstimate": boolean}.
Protein, carbs and fat are in grams. Set canEstimate to false if the description is too vague.

Meal: %s`

// SingleEstimatePrompt embeds a free-text meal description in the estimate prompt.
func SingleEstimatePrompt(description string) string {
	return fmt.Sprintf(singleEstimatePrompt, description)
}

// ImageRecognizer returns the raw multi-item payload for a food photo.
type ImageRecognizer interface {
	RecognizeImage(ctx context.Context, r io.Reader, mimeType string) ([]byte, error)
}

// TextEstimator returns the raw single-item payload for a meal description.
type TextEstimator interface {
	EstimateText(ctx context.Context, description string) ([]byte, error)
}

type Recognizer interface {
	ImageRecognizer
	TextEstimator
}
