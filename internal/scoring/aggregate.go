package scoring

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/registration-api/internal/models"
)

// reserved keys that may sit next to criteria in a breakdown evaluation.
var reservedEvaluationKeys = map[string]struct{}{
	"error": {},
	"total": {},
}

// Scores is the per-stage and grand total score of a submission.
type Scores struct {
	Stage1 float64 `json:"stage_1"`
	Stage2 float64 `json:"stage_2"`
	Stage3 float64 `json:"stage_3"`
	Total  float64 `json:"total"`
}

// Compute returns every stage score of a submission and their sum.
func Compute(submission models.Submission, fields []models.FormField) Scores {
	scores := Scores{
		Stage1: StageScore(submission, 1, fields),
		Stage2: StageScore(submission, 2, fields),
		Stage3: StageScore(submission, 3, fields),
	}
	scores.Total = scores.Stage1 + scores.Stage2 + scores.Stage3
	return scores
}

// TotalScore sums the scores of stages 1 through 3.
func TotalScore(submission models.Submission, fields []models.FormField) float64 {
	total := 0.0
	for stage := models.StageFirst; stage <= models.StageLastScored; stage++ {
		total += StageScore(submission, stage, fields)
	}
	return total
}

// StageScore sums weighted answers and breakdown AI evaluations of one stage.
// Missing answer or evaluation maps contribute 0.
func StageScore(submission models.Submission, stage int, fields []models.FormField) float64 {
	if !models.IsScoredStage(stage) {
		return 0
	}

	answers := submission.StageAnswers(stage)
	total := 0.0
	for _, field := range fields {
		if field.Stage != stage || field.IsAICalculated {
			continue
		}
		value, ok := answers[field.Name]
		if !ok {
			continue
		}
		total += ResolveFieldWeight(field, value, stage)
	}

	return total + EvaluationsScore(submission.StageEvaluations(stage), stage)
}

// EvaluationsScore sums the contribution of every stored evaluation of a stage.
func EvaluationsScore(evaluations models.AIEvaluations, stage int) float64 {
	keys := make([]string, 0, len(evaluations))
	for key := range evaluations {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	total := 0.0
	for _, key := range keys {
		total += EvaluationContribution(evaluations[key].Evaluation, stage)
	}
	return total
}

// EvaluationContribution returns what a single evaluation adds to its stage score.
//
// Only breakdown evaluations count. Stage 3 sums each criterion's weighted result and falls
// back to the raw score when a result is missing; stages 1 and 2 sum the raw scores.
// Flat {score, explanation} evaluations contribute 0.
func EvaluationContribution(evaluation map[string]interface{}, stage int) float64 {
	criteria := Criteria(evaluation)
	if len(criteria) == 0 {
		return 0
	}

	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		criterion := criteria[name]
		if stage == 3 {
			if result, ok := Number(criterion["result"]); ok {
				total += result
				continue
			}
		}
		if score, ok := Number(criterion["score"]); ok {
			total += score
		}
	}
	return total
}

// IsBreakdown reports whether an evaluation is keyed by criterion rather than flat.
func IsBreakdown(evaluation map[string]interface{}) bool {
	return len(Criteria(evaluation)) > 0
}

// Criteria extracts the per-criterion entries of a breakdown evaluation.
func Criteria(evaluation map[string]interface{}) map[string]map[string]interface{} {
	criteria := map[string]map[string]interface{}{}
	for key, value := range evaluation {
		if _, reserved := reservedEvaluationKeys[key]; reserved {
			continue
		}
		if entry, ok := value.(map[string]interface{}); ok {
			criteria[key] = entry
		}
	}
	return criteria
}

// Number converts a decoded JSON value into a float.
func Number(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
