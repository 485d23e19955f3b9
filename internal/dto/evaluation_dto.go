package dto

import "github.com/noah-isme/registration-api/internal/models"

// EvaluationRequest asks for AI evaluation of a submission's free-text answers.
type EvaluationRequest struct {
	SubmissionID uint                   `json:"submissionId" validate:"required"`
	UserEmail    string                 `json:"userEmail" validate:"required,email"`
	FormData     map[string]interface{} `json:"formData"`
	Stage        int                    `json:"stage" validate:"omitempty,min=1,max=3"`
}

// EvaluationResponse summarises a completed evaluation run.
type EvaluationResponse struct {
	SubmissionID uint                 `json:"submissionId"`
	Stage        int                  `json:"stage"`
	Evaluated    int                  `json:"evaluated"`
	Failed       int                  `json:"failed"`
	Evaluations  models.AIEvaluations `json:"evaluations"`
}
