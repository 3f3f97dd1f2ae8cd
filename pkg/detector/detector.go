// Package detector applies a fitted scaler and margin classifier to a feature
// vector and reports whether the media looks like cover or stego.
//
// The model is passed in by the caller. Loading it once and sharing it is the
// caller's job; see analyzer.ModelStore.
package detector

import (
	"fmt"
	"math"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Detect standardizes features, evaluates the classifier and returns the most
// probable label with its probability.
func Detect(features []float64, m *Model) (models.DetectionResult, error) {
	if m == nil {
		return models.DetectionResult{}, &models.ModelError{Err: fmt.Errorf("no model loaded")}
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.DetectionResult{}, fmt.Errorf("feature %d is not finite", i)
		}
	}

	scaled, err := m.scaler.Transform(features)
	if err != nil {
		return models.DetectionResult{}, fmt.Errorf("scale features: %w", err)
	}
	margin, err := m.classifier.DecisionFunction(scaled)
	if err != nil {
		return models.DetectionResult{}, fmt.Errorf("classify: %w", err)
	}
	proba, err := m.classifier.PredictProba(scaled)
	if err != nil {
		return models.DetectionResult{}, fmt.Errorf("classify: %w", err)
	}

	classes := m.classifier.Classes()
	stegoIdx := 1
	if classes[0] == models.Stego {
		stegoIdx = 0
		margin = -margin
	}

	best := 0
	if proba[1] > proba[0] {
		best = 1
	}
	return models.DetectionResult{
		Label:            classes[best],
		Confidence:       clamp01(proba[best]),
		StegoProbability: clamp01(proba[stegoIdx]),
		Margin:           margin,
	}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
