// Package scoring computes applicant scores from form answers and stored AI evaluations.
// Everything here is pure: scores are recomputed on every read and never persisted.
package scoring

import "github.com/noah-isme/registration-api/internal/models"

// BinaryCorrectPoints is what a correct answer is worth in stage 2, whatever its configured weight.
const BinaryCorrectPoints = 1000

// ResolveFieldWeight returns the contribution of a submitted value for a weighted field.
//
// Options are matched on the raw stored value. Stage 2 collapses any positive weight to
// BinaryCorrectPoints; other stages return the configured weight unclamped. AI-calculated
// fields always contribute 0 here, their score comes from the stored evaluation.
func ResolveFieldWeight(field models.FormField, value interface{}, stage int) float64 {
	if !field.HasWeight || field.IsAICalculated || value == nil {
		return 0
	}

	raw, ok := value.(string)
	if !ok {
		return 0
	}

	for _, option := range field.Options {
		if option.Value != raw {
			continue
		}

		weight := 0.0
		if option.Weight != nil {
			weight = *option.Weight
		}

		if stage == 2 {
			if weight > 0 {
				return BinaryCorrectPoints
			}
			return 0
		}
		return weight
	}

	return 0
}
