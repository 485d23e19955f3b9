package dto

import (
	"strconv"
	"time"

	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/scoring"
)

// SubmissionListRequest narrows the admin review list.
type SubmissionListRequest struct {
	Stage    *int
	Channels []string
	Decision string
}

// SubmissionSummary is a review list row.
type SubmissionSummary struct {
	ID                uint           `json:"id"`
	UserEmail         string         `json:"user_email"`
	Name              string         `json:"name"`
	Phone             string         `json:"phone"`
	Stage             int            `json:"stage"`
	FilteringDecision string         `json:"filtering_decision"`
	Channel           string         `json:"channel"`
	Note              string         `json:"note"`
	Scores            scoring.Scores `json:"scores"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// SubmissionDetail adds the raw answers and AI evaluations per stage.
type SubmissionDetail struct {
	SubmissionSummary
	Answers     map[string]map[string]interface{} `json:"answers"`
	Evaluations map[string]models.AIEvaluations   `json:"evaluations"`
}

// NewSubmissionDetail builds the detail view from a submission and its scores.
func NewSubmissionDetail(summary SubmissionSummary, submission models.Submission) SubmissionDetail {
	detail := SubmissionDetail{
		SubmissionSummary: summary,
		Answers:           make(map[string]map[string]interface{}, models.StageLastScored),
		Evaluations:       make(map[string]models.AIEvaluations, models.StageLastScored),
	}
	for stage := models.StageFirst; stage <= models.StageLastScored; stage++ {
		key := strconv.Itoa(stage)
		detail.Answers[key] = submission.StageAnswers(stage)
		detail.Evaluations[key] = submission.StageEvaluations(stage)
	}
	return detail
}

// DecisionUpdateRequest sets the filtering decision of one submission.
type DecisionUpdateRequest struct {
	Decision string `json:"decision" validate:"required"`
}

// BulkDecisionRequest sets the same filtering decision on many submissions.
type BulkDecisionRequest struct {
	IDs      []uint `json:"ids" validate:"required,min=1"`
	Decision string `json:"decision" validate:"required"`
}

// BulkDecisionResponse reports how many rows changed.
type BulkDecisionResponse struct {
	Updated  int64  `json:"updated"`
	Decision string `json:"decision"`
}
