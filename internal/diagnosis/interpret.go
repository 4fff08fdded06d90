// Package diagnosis turns classifier scores into user-facing results.
package diagnosis

import (
	"errors"
	"fmt"
	"math"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

// Prediction is the winning class of one inference call.
type Prediction struct {
	ClassIndex int     `json:"class_index"`
	Confidence float32 `json:"confidence"`
}

// Interpret picks the highest score. Ties go to the lowest index. An index at
// or beyond catalogSize is reported, never clamped. NaN or infinite scores
// are an inference error.
func Interpret(scores model.ProbabilityVector, catalogSize int) (Prediction, error) {
	if len(scores) == 0 {
		return Prediction{}, domain.WrapError(domain.ErrInference, "interpret", errors.New("empty score vector"))
	}

	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return Prediction{}, domain.WrapError(domain.ErrInference, "interpret", fmt.Errorf("score %d is %v", i, val))
		}
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	if maxIdx >= catalogSize {
		return Prediction{}, domain.WrapError(domain.ErrOutOfRange, "interpret",
			fmt.Errorf("argmax %d but catalog has %d classes", maxIdx, catalogSize))
	}

	return Prediction{ClassIndex: maxIdx, Confidence: maxVal}, nil
}

// Record is what the presentation layer renders for one diagnosis.
type Record struct {
	Plant             string  `json:"plant"`
	Disease           string  `json:"disease"`
	DisplayName       string  `json:"display_name"`
	ClassIndex        int     `json:"class_index"`
	Confidence        float32 `json:"confidence"`
	ConfidencePercent string  `json:"confidence_percent"`
	Remedy            string  `json:"remedy"`
}

// Compose joins a prediction with its catalog entry.
func Compose(p Prediction, cat *catalog.Catalog) (Record, error) {
	entry, err := cat.Lookup(p.ClassIndex)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Plant:             entry.Plant,
		Disease:           entry.Label,
		DisplayName:       entry.DisplayName(),
		ClassIndex:        p.ClassIndex,
		Confidence:        p.Confidence,
		ConfidencePercent: FormatPercent(p.Confidence),
		Remedy:            entry.Remedy,
	}, nil
}

// FormatPercent renders a [0,1] confidence with one decimal, e.g. "97.3%".
func FormatPercent(confidence float32) string {
	return fmt.Sprintf("%.1f%%", float64(confidence)*100)
}
